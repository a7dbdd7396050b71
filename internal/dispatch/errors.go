package dispatch

import "errors"

var (
	// ErrInvalidHandle is returned for a handle with no panel name or an
	// instance below 1.
	ErrInvalidHandle = errors.New("dispatch: invalid panel handle")

	// ErrInvalidIndex is returned for a negative entry index.
	ErrInvalidIndex = errors.New("dispatch: invalid entry index")

	// ErrSubmitFailed is returned when the transport rejects the command.
	ErrSubmitFailed = errors.New("dispatch: submit failed")
)
