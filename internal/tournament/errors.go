package tournament

import "errors"

var (
	// ErrInvalidState is returned when an operation is attempted in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput is returned for malformed participant, round or result data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a concurrent write was detected.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the session may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)
