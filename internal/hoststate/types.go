package hoststate

import "time"

// Well-known panel names.
const (
	// PanelSelectString is the modal list of selectable strings.
	PanelSelectString = "SelectString"

	// PanelSelectYesno is the modal yes/no confirmation. Several instances
	// may be open at once.
	PanelSelectYesno = "SelectYesno"

	// PanelFadeBack and PanelFadeMiddle cover the screen during area
	// transitions.
	PanelFadeBack   = "FadeBack"
	PanelFadeMiddle = "FadeMiddle"

	// PanelServerInfo is the server info bar. Its roleplay-walk indicator
	// lives at node RPWalkNode.
	PanelServerInfo = "_DTR"
)

// Well-known node paths.
const (
	// YesnoPromptNode holds the prompt text of a SelectYesno panel.
	YesnoPromptNode = "15"

	// RPWalkNode is the walk-mode indicator in the server info bar.
	RPWalkNode = "10"
)

// Condition flags that put the player in a restricted state.
const (
	ConditionBoundByDuty   = "BoundByDuty"
	ConditionBoundByDuty56 = "BoundByDuty56"
	ConditionBoundByDuty95 = "BoundByDuty95"
	ConditionBoundToDuty97 = "BoundToDuty97"
)

// restrictedConditions are the conditions reported by IsRestrictedState.
var restrictedConditions = []string{
	ConditionBoundByDuty,
	ConditionBoundByDuty56,
	ConditionBoundByDuty95,
	ConditionBoundToDuty97,
}

// MaxPanelInstance bounds instance scans such as the yes/no lookup.
const MaxPanelInstance = 99

// PanelHandle identifies one panel instance. It carries no host address.
type PanelHandle struct {
	Name     string `json:"name"`
	Instance int    `json:"instance"`
}

// Snapshot is the host's published view of its UI and player state.
type Snapshot struct {
	// Seq increases with every snapshot the adapter publishes. Snapshots
	// with a Seq lower than the current one are ignored. Zero disables the
	// check.
	Seq    uint64    `json:"seq"`
	Time   time.Time `json:"time"`
	Player Player    `json:"player"`
	Panels []Panel   `json:"panels"`
}

// Player is the controlled character's state.
type Player struct {
	// JobID is the current job; nil while unknown (e.g. during a zone load).
	JobID        *uint32  `json:"job_id,omitempty"`
	Moving       bool     `json:"moving"`
	TargetLocked bool     `json:"target_locked"`
	Conditions   []string `json:"conditions,omitempty"`
	FreeSlots    int      `json:"free_slots"`
}

// Panel is one UI surface.
type Panel struct {
	Name string `json:"name"`

	// Instance is 1-based; zero is read as 1.
	Instance int  `json:"instance"`
	Ready    bool `json:"ready"`
	Visible  bool `json:"visible"`

	// Nodes are text/visibility nodes keyed by path ("15", "2/3/3").
	Nodes map[string]Node `json:"nodes,omitempty"`

	// Entries are the choices of a selection panel, in display order.
	Entries []Entry `json:"entries,omitempty"`
}

// Node is a single UI element inside a panel.
type Node struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Entry is one choice in a selection panel.
type Entry struct {
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// Handle returns the panel's handle.
func (p Panel) Handle() PanelHandle {
	return PanelHandle{Name: p.Name, Instance: p.Instance}
}

// Reader is the query surface the engine consumes. Implementations must be
// side-effect free and must never panic.
type Reader interface {
	// FindPanel returns the handle of an existing panel instance.
	FindPanel(name string, instance int) (PanelHandle, bool)

	// IsPanelReady is false if the panel does not exist, is not fully
	// initialised, or instance is out of range.
	IsPanelReady(name string, instance int) bool

	// IsPanelVisible reports whether the panel exists and is drawn.
	IsPanelVisible(name string, instance int) bool

	// ReadText returns the text at nodePath, or false if the panel is not
	// ready or any part of the path is absent.
	ReadText(h PanelHandle, nodePath string) (string, bool)

	// IsNodeVisible reports whether the node at nodePath exists and is drawn.
	IsNodeVisible(h PanelHandle, nodePath string) bool

	// ListSelectableEntries returns the current choices in order, or nil if
	// the panel is not ready.
	ListSelectableEntries(h PanelHandle) []Entry

	// IsEntryEnabled is false for a panel that is not ready or an index
	// out of range.
	IsEntryEnabled(h PanelHandle, index int) bool

	// ReadEntries returns the panel's entries and whether it is ready,
	// both taken from the same snapshot.
	ReadEntries(h PanelHandle) ([]Entry, bool)

	IsLoadingScreenActive() bool
	IsRestrictedState() bool
	IsMoving() bool
	IsTargetLocked() bool
	FreeInventorySlots() int

	// CurrentJob is the Identity Source: the active job id, or false while
	// it is unknown.
	CurrentJob() (uint32, bool)
}
