// Package config parses the string-keyed option map supplied by the host
// into typed connection settings. Parsing covers key recognition, type
// conversion, defaults, and contact-point splitting; semantic validation
// of the resulting settings happens when the connection descriptor is
// built.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Recognized option keys.
const (
	OptionContactPoints   = "contact-points"
	OptionPort            = "port"
	OptionPath            = "path"
	OptionTraversalSource = "traversal-source"
	OptionTLS             = "tls"
)

// Defaults applied when the corresponding option is absent.
const (
	DefaultPort = 8182
	DefaultPath = "/gremlin"
)

// TLSMaterial supplies the PEM material behind a "tls" option reference.
// Providers are registered with the service under a name; the option value
// selects one. All getters return file paths except KeyPassphrase, which
// returns the passphrase for an encrypted key block (empty for
// unencrypted keys). An empty CAFile means system roots only.
type TLSMaterial interface {
	CertFile() string
	KeyFile() string
	KeyPassphrase() string
	CAFile() string
}

// StaticTLSMaterial is a TLSMaterial backed by fixed values, used by the
// CLI and by hosts that resolve their credential stores up front.
type StaticTLSMaterial struct {
	Cert       string
	Key        string
	Passphrase string
	CA         string
}

func (m StaticTLSMaterial) CertFile() string      { return m.Cert }
func (m StaticTLSMaterial) KeyFile() string       { return m.Key }
func (m StaticTLSMaterial) KeyPassphrase() string { return m.Passphrase }
func (m StaticTLSMaterial) CAFile() string        { return m.CA }

// Settings is the typed form of the option map.
type Settings struct {
	ContactPoints   []string
	Port            int
	Path            string
	TraversalSource string
	TLS             TLSMaterial // nil when the tls option is unset
}

// Parse converts the raw option map into Settings. Unknown keys are
// rejected so host typos fail fast. materials resolves the value of the
// tls option; a nil map means no providers are registered.
func Parse(raw map[string]string, materials map[string]TLSMaterial) (*Settings, error) {
	for key := range raw {
		switch key {
		case OptionContactPoints, OptionPort, OptionPath, OptionTraversalSource, OptionTLS:
		default:
			return nil, fmt.Errorf("config: unrecognized option %q", key)
		}
	}

	settings := &Settings{
		ContactPoints:   SplitContactPoints(raw[OptionContactPoints]),
		Port:            DefaultPort,
		Path:            DefaultPath,
		TraversalSource: strings.TrimSpace(raw[OptionTraversalSource]),
	}

	if v, ok := raw[OptionPort]; ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("config: option %q: %q is not a number", OptionPort, v)
		}
		settings.Port = port
	}

	if v, ok := raw[OptionPath]; ok {
		settings.Path = strings.TrimSpace(v)
	}

	if name, ok := raw[OptionTLS]; ok {
		name = strings.TrimSpace(name)
		material, found := materials[name]
		if !found {
			return nil, fmt.Errorf("config: option %q: no TLS material registered under %q", OptionTLS, name)
		}
		settings.TLS = material
	}

	return settings, nil
}

// SplitContactPoints splits a comma-separated contact list, trimming
// surrounding whitespace from each entry and dropping empty ones. Order
// is preserved.
func SplitContactPoints(raw string) []string {
	var points []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		points = append(points, part)
	}
	return points
}
