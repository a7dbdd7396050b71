package taskmanager

import "errors"

var (
	// ErrTimeout is reported when a step's deadline passes before its
	// condition holds.
	ErrTimeout = errors.New("taskmanager: step timed out")

	// ErrAbort may be returned by a step Action to drop the rest of the queue.
	ErrAbort = errors.New("taskmanager: abort requested")

	// ErrStepPanic is reported when a step's Condition or Action panics.
	ErrStepPanic = errors.New("taskmanager: step panicked")
)
