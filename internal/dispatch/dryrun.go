package dispatch

import "github.com/nerrad567/tickpilot/internal/hoststate"

// DryRun logs commands instead of submitting them. Used by
// `tickpilot run --dry-run` to watch what features would do.
type DryRun struct {
	Logger interface {
		Info(msg string, args ...any)
	}
}

var _ Dispatcher = DryRun{}

// Select implements Dispatcher.
func (d DryRun) Select(h hoststate.PanelHandle, index int) error {
	if err := ValidateHandle(h); err != nil {
		return err
	}
	d.Logger.Info("dry-run select", "panel", h.Name, "instance", h.Instance, "index", index)
	return nil
}

// Confirm implements Dispatcher.
func (d DryRun) Confirm(h hoststate.PanelHandle, accept bool) error {
	if err := ValidateHandle(h); err != nil {
		return err
	}
	d.Logger.Info("dry-run confirm", "panel", h.Name, "instance", h.Instance, "accept", accept)
	return nil
}
