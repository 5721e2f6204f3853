package service

import (
	"context"

	"github.com/graphwire/graphwire/internal/driver"
)

// Traversal is the script-visible handle to the open session, exposed to
// query fragments under the reserved "g" binding. With the engine's
// uncapitalized member mapping, scripts call it as
//
//	g.submit("g.V().has('name', n).count()", {n: name})
//
// A failed submission aborts the evaluation.
type Traversal struct {
	ctx  context.Context
	sess driver.Session
}

// Submit evaluates a Gremlin statement on the remote server and returns
// its result rows.
func (t *Traversal) Submit(gremlin string, bindings map[string]any) ([]any, error) {
	return t.sess.Submit(t.ctx, gremlin, bindings)
}
