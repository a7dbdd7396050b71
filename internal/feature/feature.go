package feature

import (
	"fmt"

	"github.com/nerrad567/tickpilot/internal/settings"
)

// Type classifies a feature for listing and grouping.
type Type string

const (
	TypeActions  Type = "actions"
	TypeUI       Type = "ui"
	TypeCommands Type = "commands"
	TypeOther    Type = "other"
)

// State is a feature's lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateDisabled
	StateEnabled
	StateDisposed
)

// String returns the state name used in the API and logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Info is the static identity of a feature.
type Info struct {
	// Key is stable across releases; settings and enabled state are
	// persisted under it.
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        Type   `json:"type"`
}

// Status is a point-in-time view of a feature.
type Status struct {
	Info
	State    State   `json:"state"`
	Enabled  bool    `json:"enabled"`
	Ready    bool    `json:"ready"`
	Pending  int     `json:"pending_steps"`
	InFlight string  `json:"in_flight,omitempty"`
	JobID    *uint32 `json:"job_id,omitempty"`
	Fault    string  `json:"fault,omitempty"`
}

// Feature is what the Registry manages. Concrete features get most of it
// by embedding *Base.
type Feature interface {
	Info() Info
	Setup() error
	Enable() error
	Disable()
	Dispose()
	Status() Status
}

// Configurable is implemented by features with editable settings.
type Configurable interface {
	Feature

	// Settings returns the settings value that is persisted.
	Settings() any

	// Fields describes the editable settings, bound to Settings().
	Fields() []settings.Field

	// SaveConfig persists v under the feature key.
	SaveConfig(v any) error
}

// Reconfigurable is implemented by features that react to settings edits.
type Reconfigurable interface {
	ConfigChanged()
}
