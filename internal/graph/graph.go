// Package graph defines the caller-facing contract of the graph client
// service: the result callback, the service interface, result
// normalization, and the error taxonomy surfaced at the ExecuteQuery
// boundary.
package graph

import "context"

// TraversalBinding is the reserved binding name under which the open
// traversal session handle is exposed to query scripts. A caller-supplied
// parameter with the same name is overridden.
const TraversalBinding = "g"

// ResultKey is the key under which non-map evaluation results are wrapped.
const ResultKey = "result"

// ResultCallback receives one normalized result row. more is false on the
// final (and, for this service, only) row. A non-nil return aborts the
// surrounding query with an execution failure.
type ResultCallback func(row map[string]any, more bool) error

// ClientService is the capability the service exposes to its host.
type ClientService interface {
	// ExecuteQuery evaluates one query fragment with the given parameter
	// bindings and delivers the normalized result through cb. The returned
	// map is empty on success; results travel only through the callback.
	ExecuteQuery(ctx context.Context, script string, params map[string]any, cb ResultCallback) (map[string]string, error)

	// TransitURL returns the derived connection URL for logging. Empty
	// when the service is disabled.
	TransitURL() string
}

// Normalize shapes a raw evaluation result into a result row. Map results
// pass through unchanged; anything else is wrapped in a single-entry map
// under ResultKey.
func Normalize(v any) map[string]any {
	if row, ok := v.(map[string]any); ok {
		return row
	}
	return map[string]any{ResultKey: v}
}
