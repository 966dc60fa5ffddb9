package election

import "errors"

// Error kinds surfaced by lifecycle operations. Call sites wrap these with
// context; callers classify with errors.Is.
var (
	// ErrForbidden means the principal lacks the permission for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition means the current lifecycle state does not allow the operation.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrNotFound means the election does not exist, including after a purge.
	ErrNotFound = errors.New("election not found")
	// ErrConflict means the record changed since it was read.
	ErrConflict = errors.New("election was modified concurrently")
	// ErrValidation means the request input is malformed.
	ErrValidation = errors.New("validation failed")
)
