// Package validate holds small input-validation helpers shared by the
// configuration and cluster packages.
package validate

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// hostRe matches DNS-style hostnames: alphanumeric start, then
// alphanumerics, dots, and hyphens.
var hostRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*$`)

// maxHostLen is the maximum length for a hostname per RFC 1035.
const maxHostLen = 253

// Port reports whether p is a usable TCP port.
func Port(p int) bool {
	return p >= 1 && p <= 65535
}

// ContactPoint reports whether s is a plausible server address: an IP
// literal or a DNS-style hostname.
func ContactPoint(s string) bool {
	if s == "" || len(s) > maxHostLen {
		return false
	}
	if net.ParseIP(s) != nil {
		return true
	}
	return hostRe.MatchString(s)
}

// URLPath ensures p is usable as the URL path segment of a server
// endpoint: non-empty, rooted, and free of whitespace.
func URLPath(p string) error {
	if p == "" {
		return fmt.Errorf("path is empty")
	}
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("path %q must start with '/'", p)
	}
	if strings.ContainsAny(p, " \t\r\n") {
		return fmt.Errorf("path %q contains whitespace", p)
	}
	return nil
}
