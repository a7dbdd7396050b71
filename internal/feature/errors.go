package feature

import "errors"

var (
	// ErrNotFound is returned when no feature is registered under a key.
	ErrNotFound = errors.New("feature: not found")

	// ErrDuplicate is returned when a key is registered twice.
	ErrDuplicate = errors.New("feature: duplicate key")

	// ErrNotReady is returned by Enable before Setup has completed.
	ErrNotReady = errors.New("feature: not ready")

	// ErrDisposed is returned by Setup after Dispose.
	ErrDisposed = errors.New("feature: disposed")

	// ErrNotConfigurable is returned for settings requests on a feature
	// without settings.
	ErrNotConfigurable = errors.New("feature: no settings")
)
