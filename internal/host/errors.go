package host

import "errors"

var (
	// ErrStopped is returned by Call when the framework stopped before the
	// posted work ran.
	ErrStopped = errors.New("host: framework stopped")

	// ErrInvalidInterval is returned by Run for a non-positive interval.
	ErrInvalidInterval = errors.New("host: tick interval must be positive")
)
