package settings

import "errors"

var (
	// ErrNotFound is returned by Load when nothing is stored for a key.
	ErrNotFound = errors.New("settings: not found")

	// ErrUnknownField is returned when a patch names a field that does not exist.
	ErrUnknownField = errors.New("settings: unknown field")

	// ErrInvalidValue is returned when a value does not fit the field's kind.
	ErrInvalidValue = errors.New("settings: invalid value")
)
