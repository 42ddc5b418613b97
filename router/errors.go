package router

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/assist/action"
)

// ErrUnknownKind is returned by Emit for a kind other than before, after or change.
var ErrUnknownKind = errors.New("unknown event kind")

// ListenerError wraps the error returned by a listener during emission.
type ListenerError struct {
	Kind   Kind
	Action action.Action
	Err    error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	if e.Kind == Change {
		return fmt.Sprintf("%s listener failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s listener failed on %q: %v", e.Kind, e.Action.Type, e.Err)
}

// Unwrap enables error unwrapping for errors.Is and errors.As.
func (e *ListenerError) Unwrap() error {
	return e.Err
}
