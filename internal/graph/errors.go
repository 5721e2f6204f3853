package graph

import "errors"

// Error kinds surfaced at the service boundary. Callers match them with
// errors.Is; the underlying cause stays reachable through errors.Unwrap.
var (
	// ErrConfiguration indicates malformed connection settings at enable time.
	ErrConfiguration = errors.New("graph: invalid configuration")
	// ErrCompilation indicates a query fragment that failed to compile.
	ErrCompilation = errors.New("graph: script compilation failed")
	// ErrConnection indicates a failure to open or use the remote connection.
	ErrConnection = errors.New("graph: connection failure")
	// ErrExecution indicates a failure while binding or evaluating a
	// compiled fragment.
	ErrExecution = errors.New("graph: execution failure")
	// ErrShutdown indicates a failure while releasing the shared connection
	// resource on disable.
	ErrShutdown = errors.New("graph: shutdown failure")
)

// WrapError tags err with one of the kind sentinels above. The result
// matches the kind under errors.Is and unwraps to err. A nil err returns
// nil.
func WrapError(kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.err.Error() }

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.err }
