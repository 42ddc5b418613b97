package journal

import "errors"

// Sentinel errors for journal persistence.
var (
	ErrNotFound      = errors.New("journal not found")
	ErrLoadFailed    = errors.New("load failed")
	ErrSaveFailed    = errors.New("save failed")
	ErrUnknownFormat = errors.New("unknown journal format")
)
