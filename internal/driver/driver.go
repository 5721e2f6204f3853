// Package driver is the boundary to the remote graph server. The service
// depends only on the Driver and Session interfaces; the WebSocket
// implementation in this package speaks the Gremlin Server protocol.
package driver

import (
	"context"
	"errors"
)

// ErrClosed is returned when a session is requested from, or used after,
// a closed driver.
var ErrClosed = errors.New("driver: closed")

// Driver is the long-lived handle from which per-call sessions are drawn.
type Driver interface {
	// OpenSession dials the remote server and returns a session bound to
	// the named traversal source. An empty source selects the server
	// default.
	OpenSession(ctx context.Context, source string) (Session, error)

	// Close releases the shared handle. Open sessions are closed and
	// later OpenSession calls fail with ErrClosed.
	Close() error
}

// Session is an ephemeral, per-call connection to the remote graph.
type Session interface {
	// Submit evaluates a Gremlin statement remotely with the given
	// bindings and returns the result rows.
	Submit(ctx context.Context, gremlin string, bindings map[string]any) ([]any, error)

	// Close releases the session. Closing twice is a no-op.
	Close() error
}
