package feature

import (
	"strings"
	"unicode"

	"github.com/nerrad567/tickpilot/internal/dispatch"
	"github.com/nerrad567/tickpilot/internal/hoststate"
	"github.com/nerrad567/tickpilot/internal/throttle"
)

// UI bundles the read, act and throttle collaborators behind the helpers
// features use to drive host panels. Every helper reads fresh state and
// either acts once or does nothing; none of them wait. Call them from a
// task step so they are retried on later ticks.
type UI struct {
	reader     hoststate.Reader
	dispatcher dispatch.Dispatcher
	throttles  *throttle.Registry
	logger     Logger
}

// NewUI creates the helper set.
func NewUI(reader hoststate.Reader, dispatcher dispatch.Dispatcher, throttles *throttle.Registry, logger Logger) *UI {
	if logger == nil {
		logger = noopLogger{}
	}
	return &UI{
		reader:     reader,
		dispatcher: dispatcher,
		throttles:  throttles,
		logger:     logger,
	}
}

// Reader returns the state reader.
func (u *UI) Reader() hoststate.Reader { return u.reader }

// Throttles returns the shared throttle registry.
func (u *UI) Throttles() *throttle.Registry { return u.throttles }

// GenericThrottle consumes the shared generic throttle.
func (u *UI) GenericThrottle() bool {
	return u.throttles.Generic()
}

// RethrottleGeneric restarts the shared generic cooldown.
func (u *UI) RethrottleGeneric() {
	u.throttles.RethrottleGeneric()
}

// TrySelectEntry is TrySelectSpecificEntry for one candidate.
func (u *UI) TrySelectEntry(text string, gate func() bool) bool {
	return u.TrySelectSpecificEntry([]string{text}, gate)
}

// TrySelectSpecificEntry selects the first entry of the string selection
// panel whose label contains any of candidates, ignoring whitespace.
//
// The entry must be enabled and gate must allow it; a nil gate uses the
// generic throttle. Returns true only when a selection was submitted.
// When the panel is not ready the generic throttle is restarted so that a
// stalled sequence does not keep other features waiting on it.
func (u *UI) TrySelectSpecificEntry(candidates []string, gate func() bool) bool {
	h := hoststate.PanelHandle{Name: hoststate.PanelSelectString, Instance: 1}
	entries, ready := u.reader.ReadEntries(h)
	if !ready {
		u.RethrottleGeneric()
		return false
	}

	index := matchEntry(entries, candidates)
	if index < 0 || !entries[index].Enabled {
		return false
	}

	var allowed bool
	if gate != nil {
		allowed = gate()
	} else {
		allowed = u.GenericThrottle()
	}
	if !allowed {
		return false
	}

	if err := u.dispatcher.Select(h, index); err != nil {
		u.logger.Warn("select failed", "panel", h.Name, "index", index, "error", err)
		return false
	}
	u.logger.Debug("selected entry", "entry", entries[index].Text, "index", index, "candidates", candidates)
	return true
}

// HasSpecificEntry reports whether the string selection panel is ready
// and shows an enabled entry matching any of candidates. It never acts.
func (u *UI) HasSpecificEntry(candidates ...string) bool {
	h := hoststate.PanelHandle{Name: hoststate.PanelSelectString, Instance: 1}
	entries, ready := u.reader.ReadEntries(h)
	if !ready {
		return false
	}
	index := matchEntry(entries, candidates)
	return index >= 0 && entries[index].Enabled
}

// IsSelectItemEnabled reports whether entry index of the string selection
// panel can be chosen.
func (u *UI) IsSelectItemEnabled(index int) bool {
	h := hoststate.PanelHandle{Name: hoststate.PanelSelectString, Instance: 1}
	return u.reader.IsEntryEnabled(h, index)
}

// GetSpecificYesno returns the first ready yes/no panel whose prompt equals
// one of candidates, ignoring spaces.
func (u *UI) GetSpecificYesno(candidates ...string) (hoststate.PanelHandle, bool) {
	want := make([]string, 0, len(candidates))
	for _, c := range candidates {
		want = append(want, withoutSpaces(c))
	}
	return u.GetSpecificYesnoFunc(func(prompt string) bool {
		prompt = withoutSpaces(prompt)
		for _, w := range want {
			if prompt == w {
				return true
			}
		}
		return false
	})
}

// GetSpecificYesnoFunc returns the first ready yes/no panel whose prompt
// satisfies match. Instances are scanned from 1 and the scan stops at the
// first instance that does not exist.
func (u *UI) GetSpecificYesnoFunc(match func(prompt string) bool) (hoststate.PanelHandle, bool) {
	for i := 1; i <= hoststate.MaxPanelInstance; i++ {
		h, ok := u.reader.FindPanel(hoststate.PanelSelectYesno, i)
		if !ok {
			return hoststate.PanelHandle{}, false
		}
		if !u.reader.IsPanelReady(h.Name, h.Instance) {
			continue
		}
		prompt, ok := u.reader.ReadText(h, hoststate.YesnoPromptNode)
		if !ok {
			continue
		}
		if match(prompt) {
			u.logger.Debug("matched yes/no prompt", "prompt", prompt, "instance", i)
			return h, true
		}
	}
	return hoststate.PanelHandle{}, false
}

// TryConfirmYesno answers the yes/no panel whose prompt matches one of
// candidates, gated by the generic throttle. Returns true only when an
// answer was submitted.
func (u *UI) TryConfirmYesno(accept bool, candidates ...string) bool {
	h, ok := u.GetSpecificYesno(candidates...)
	if !ok {
		return false
	}
	if !u.GenericThrottle() {
		return false
	}
	if err := u.dispatcher.Confirm(h, accept); err != nil {
		u.logger.Warn("confirm failed", "panel", h.Name, "instance", h.Instance, "error", err)
		return false
	}
	return true
}

// IsLoading reports whether a loading screen is showing.
func (u *UI) IsLoading() bool { return u.reader.IsLoadingScreenActive() }

// IsInDuty reports whether the player is bound to a duty.
func (u *UI) IsInDuty() bool { return u.reader.IsRestrictedState() }

// IsMoving reports whether the player is moving.
func (u *UI) IsMoving() bool { return u.reader.IsMoving() }

// IsTargetLocked reports whether the player's target is locked.
func (u *UI) IsTargetLocked() bool { return u.reader.IsTargetLocked() }

// IsInventoryFree reports whether at least one inventory slot is free.
func (u *UI) IsInventoryFree() bool { return u.reader.FreeInventorySlots() >= 1 }

// IsRpWalking reports whether the walk-mode indicator is showing in the
// server info bar.
func (u *UI) IsRpWalking() bool {
	h, ok := u.reader.FindPanel(hoststate.PanelServerInfo, 1)
	if !ok {
		return false
	}
	return u.reader.IsNodeVisible(h, hoststate.RPWalkNode)
}

// matchEntry returns the index of the first entry containing any
// non-empty candidate, comparing with whitespace removed, or -1.
func matchEntry(entries []hoststate.Entry, candidates []string) int {
	want := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if s := stripSpace(c); s != "" {
			want = append(want, s)
		}
	}
	if len(want) == 0 {
		return -1
	}

	for i, e := range entries {
		label := stripSpace(e.Text)
		for _, w := range want {
			if strings.Contains(label, w) {
				return i
			}
		}
	}
	return -1
}

// stripSpace removes all Unicode whitespace.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// withoutSpaces removes ASCII spaces only, as yes/no prompts are compared.
func withoutSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
