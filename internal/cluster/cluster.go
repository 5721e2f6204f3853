// Package cluster models the long-lived connection descriptor from which
// per-call traversal sessions are drawn. A descriptor is built once per
// enable cycle, is immutable afterwards, and performs no network I/O; the
// remote connection is dialed lazily, one session per query.
package cluster

import (
	"fmt"
	"strings"

	"github.com/graphwire/graphwire/internal/config"
	"github.com/graphwire/graphwire/internal/validate"
)

// TLSOptions carries the key/trust material locations resolved from the
// configured TLS reference.
type TLSOptions struct {
	CertFile      string
	KeyFile       string
	KeyPassphrase string
	CAFile        string
}

// Descriptor is the immutable set of parameters describing how to reach
// the remote server.
type Descriptor struct {
	contactPoints []string
	port          int
	path          string
	source        string
	tls           *TLSOptions
	transitURL    string
}

// Build validates the parsed settings and derives the descriptor and its
// transit URL.
func Build(settings *config.Settings) (*Descriptor, error) {
	if len(settings.ContactPoints) == 0 {
		return nil, fmt.Errorf("cluster: contact point list is empty")
	}
	for _, point := range settings.ContactPoints {
		if !validate.ContactPoint(point) {
			return nil, fmt.Errorf("cluster: invalid contact point %q", point)
		}
	}
	if !validate.Port(settings.Port) {
		return nil, fmt.Errorf("cluster: port %d outside 1-65535", settings.Port)
	}
	if err := validate.URLPath(settings.Path); err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}

	d := &Descriptor{
		contactPoints: append([]string(nil), settings.ContactPoints...),
		port:          settings.Port,
		path:          settings.Path,
		source:        settings.TraversalSource,
	}

	if settings.TLS != nil {
		d.tls = &TLSOptions{
			CertFile:      settings.TLS.CertFile(),
			KeyFile:       settings.TLS.KeyFile(),
			KeyPassphrase: settings.TLS.KeyPassphrase(),
			CAFile:        settings.TLS.CAFile(),
		}
	}

	scheme := "gremlin"
	if d.tls != nil {
		scheme += "+ssl"
	}
	d.transitURL = fmt.Sprintf("%s://%s:%d%s", scheme, strings.Join(d.contactPoints, ","), d.port, d.path)

	return d, nil
}

// ContactPoints returns a copy of the ordered contact-point list.
func (d *Descriptor) ContactPoints() []string {
	return append([]string(nil), d.contactPoints...)
}

// Port returns the server port.
func (d *Descriptor) Port() int { return d.port }

// Path returns the URL path segment.
func (d *Descriptor) Path() string { return d.path }

// TraversalSource returns the configured named traversal source, or ""
// for the server default.
func (d *Descriptor) TraversalSource() string { return d.source }

// TLSEnabled reports whether a TLS reference was configured.
func (d *Descriptor) TLSEnabled() bool { return d.tls != nil }

// TransitURL returns the derived human-readable connection URL.
func (d *Descriptor) TransitURL() string { return d.transitURL }
