package assistant

import "errors"

// Sentinel errors for the assistant tree.
var (
	ErrMalformedConfig    = errors.New("malformed assistant config")
	ErrAlreadyInitialized = errors.New("assistant already initialized")
	ErrDestroyed          = errors.New("assistant destroyed")
	ErrUnbound            = errors.New("assistant bindings incomplete")
	ErrNotInitialized     = errors.New("could not apply assistants before state initialization")
)
