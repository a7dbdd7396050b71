package hoststate

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// view is an applied snapshot plus lookup indexes. It is immutable once
// built, so queries only hold the read lock long enough to grab it.
type view struct {
	snap       Snapshot
	panels     map[PanelHandle]*Panel
	conditions map[string]bool
}

func newView(s Snapshot) *view {
	v := &view{
		snap:       s,
		panels:     make(map[PanelHandle]*Panel, len(s.Panels)),
		conditions: make(map[string]bool, len(s.Player.Conditions)),
	}
	for i := range v.snap.Panels {
		p := &v.snap.Panels[i]
		if p.Instance == 0 {
			p.Instance = 1
		}
		v.panels[p.Handle()] = p
	}
	for _, c := range s.Player.Conditions {
		v.conditions[c] = true
	}
	return v
}

// SnapshotReader answers Reader queries from the most recently applied
// Snapshot. Apply may be called from any goroutine; queries are normally
// made from the tick goroutine.
type SnapshotReader struct {
	mu     sync.RWMutex
	view   *view
	logger Logger
}

// Option configures a SnapshotReader.
type Option func(*SnapshotReader)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l Logger) Option {
	return func(r *SnapshotReader) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewSnapshotReader returns a reader with no snapshot. Until one is
// applied every query returns its negative result.
func NewSnapshotReader(opts ...Option) *SnapshotReader {
	r := &SnapshotReader{logger: noopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compile-time check.
var _ Reader = (*SnapshotReader)(nil)

// Apply replaces the current snapshot. It returns ErrStaleSnapshot, and
// keeps the current one, if s.Seq is non-zero and lower than the applied
// sequence.
func (r *SnapshotReader) Apply(s Snapshot) error {
	v := newView(s)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view != nil && s.Seq != 0 && s.Seq < r.view.snap.Seq {
		return fmt.Errorf("%w: seq %d < %d", ErrStaleSnapshot, s.Seq, r.view.snap.Seq)
	}
	r.view = v
	return nil
}

// ApplyJSON decodes and applies a snapshot payload.
func (r *SnapshotReader) ApplyJSON(payload []byte) error {
	s, err := DecodeSnapshot(payload)
	if err != nil {
		return err
	}
	return r.Apply(s)
}

// DecodeSnapshot parses a snapshot payload.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return s, nil
}

// Reset drops the current snapshot, e.g. when the host adapter goes away.
func (r *SnapshotReader) Reset() {
	r.mu.Lock()
	r.view = nil
	r.mu.Unlock()
}

// Current returns the applied snapshot, if any.
func (r *SnapshotReader) Current() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.view == nil {
		return Snapshot{}, false
	}
	return r.view.snap, true
}

func (r *SnapshotReader) current() *view {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// query runs fn against the current view behind a recover boundary. Any
// panic becomes fallback plus a logged diagnostic.
func query[T any](r *SnapshotReader, name string, fallback T, fn func(*view) T) (out T) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("host state query fault", "query", name, "panic", rec)
			out = fallback
		}
	}()

	v := r.current()
	if v == nil {
		return fallback
	}
	return fn(v)
}

func (v *view) panel(name string, instance int) (*Panel, bool) {
	if instance < 1 || instance > MaxPanelInstance {
		return nil, false
	}
	p, ok := v.panels[PanelHandle{Name: name, Instance: instance}]
	return p, ok
}

func (v *view) readyPanel(h PanelHandle) (*Panel, bool) {
	p, ok := v.panel(h.Name, h.Instance)
	if !ok || !p.Ready {
		return nil, false
	}
	return p, true
}

// FindPanel returns the handle of an existing panel instance.
func (r *SnapshotReader) FindPanel(name string, instance int) (PanelHandle, bool) {
	type found struct {
		h  PanelHandle
		ok bool
	}
	res := query(r, "FindPanel", found{}, func(v *view) found {
		p, ok := v.panel(name, instance)
		if !ok {
			return found{}
		}
		return found{h: p.Handle(), ok: true}
	})
	return res.h, res.ok
}

// IsPanelReady implements Reader.
func (r *SnapshotReader) IsPanelReady(name string, instance int) bool {
	return query(r, "IsPanelReady", false, func(v *view) bool {
		p, ok := v.panel(name, instance)
		return ok && p.Ready
	})
}

// IsPanelVisible implements Reader.
func (r *SnapshotReader) IsPanelVisible(name string, instance int) bool {
	return query(r, "IsPanelVisible", false, func(v *view) bool {
		p, ok := v.panel(name, instance)
		return ok && p.Visible
	})
}

// ReadText implements Reader.
func (r *SnapshotReader) ReadText(h PanelHandle, nodePath string) (string, bool) {
	type text struct {
		s  string
		ok bool
	}
	res := query(r, "ReadText", text{}, func(v *view) text {
		p, ok := v.readyPanel(h)
		if !ok {
			return text{}
		}
		n, ok := p.Nodes[nodePath]
		if !ok {
			r.logger.Debug("text node absent", "panel", h.Name, "instance", h.Instance, "path", nodePath)
			return text{}
		}
		return text{s: n.Text, ok: true}
	})
	return res.s, res.ok
}

// IsNodeVisible implements Reader.
func (r *SnapshotReader) IsNodeVisible(h PanelHandle, nodePath string) bool {
	return query(r, "IsNodeVisible", false, func(v *view) bool {
		p, ok := v.panel(h.Name, h.Instance)
		if !ok {
			return false
		}
		n, ok := p.Nodes[nodePath]
		return ok && n.Visible
	})
}

// ListSelectableEntries implements Reader. The returned slice is a copy.
func (r *SnapshotReader) ListSelectableEntries(h PanelHandle) []Entry {
	return query(r, "ListSelectableEntries", []Entry(nil), func(v *view) []Entry {
		p, ok := v.readyPanel(h)
		if !ok {
			return nil
		}
		out := make([]Entry, len(p.Entries))
		copy(out, p.Entries)
		return out
	})
}

// ReadEntries implements Reader. The returned slice is a copy.
func (r *SnapshotReader) ReadEntries(h PanelHandle) ([]Entry, bool) {
	type entries struct {
		list  []Entry
		ready bool
	}
	res := query(r, "ReadEntries", entries{}, func(v *view) entries {
		p, ok := v.readyPanel(h)
		if !ok {
			return entries{}
		}
		out := make([]Entry, len(p.Entries))
		copy(out, p.Entries)
		return entries{list: out, ready: true}
	})
	return res.list, res.ready
}

// IsEntryEnabled implements Reader.
func (r *SnapshotReader) IsEntryEnabled(h PanelHandle, index int) bool {
	return query(r, "IsEntryEnabled", false, func(v *view) bool {
		p, ok := v.readyPanel(h)
		if !ok || index < 0 || index >= len(p.Entries) {
			return false
		}
		return p.Entries[index].Enabled
	})
}

// IsLoadingScreenActive reports whether a screen fade panel is visible.
func (r *SnapshotReader) IsLoadingScreenActive() bool {
	return query(r, "IsLoadingScreenActive", false, func(v *view) bool {
		for _, name := range []string{PanelFadeBack, PanelFadeMiddle} {
			if p, ok := v.panel(name, 1); ok && p.Visible {
				return true
			}
		}
		return false
	})
}

// IsRestrictedState reports whether the player is bound to a duty.
func (r *SnapshotReader) IsRestrictedState() bool {
	return query(r, "IsRestrictedState", false, func(v *view) bool {
		for _, c := range restrictedConditions {
			if v.conditions[c] {
				return true
			}
		}
		return false
	})
}

// IsMoving implements Reader.
func (r *SnapshotReader) IsMoving() bool {
	return query(r, "IsMoving", false, func(v *view) bool { return v.snap.Player.Moving })
}

// IsTargetLocked implements Reader.
func (r *SnapshotReader) IsTargetLocked() bool {
	return query(r, "IsTargetLocked", false, func(v *view) bool { return v.snap.Player.TargetLocked })
}

// FreeInventorySlots implements Reader.
func (r *SnapshotReader) FreeInventorySlots() int {
	return query(r, "FreeInventorySlots", 0, func(v *view) int { return v.snap.Player.FreeSlots })
}

// CurrentJob implements Reader.
func (r *SnapshotReader) CurrentJob() (uint32, bool) {
	type job struct {
		id uint32
		ok bool
	}
	res := query(r, "CurrentJob", job{}, func(v *view) job {
		if v.snap.Player.JobID == nil {
			return job{}
		}
		return job{id: *v.snap.Player.JobID, ok: true}
	})
	return res.id, res.ok
}
