package hoststate

import "errors"

var (
	// ErrMalformedSnapshot is returned when a snapshot payload cannot be decoded.
	ErrMalformedSnapshot = errors.New("hoststate: malformed snapshot")

	// ErrStaleSnapshot is returned when a snapshot is older than the one applied.
	ErrStaleSnapshot = errors.New("hoststate: stale snapshot")
)
