// Package jobannounce tells the user when their job changes.
package jobannounce

import (
	"fmt"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/settings"
)

// Key is the feature key.
const Key = "jobannounce"

// Settings are the persisted options.
type Settings struct {
	Announce bool `json:"announce"`
}

// Feature is the job announcer.
type Feature struct {
	*feature.Base
	cfg    Settings
	cancel func()
}

// New creates the feature.
func New(deps feature.Deps) *Feature {
	f := &Feature{cfg: Settings{Announce: true}}
	f.Base = feature.NewBase(feature.Info{
		Key:         Key,
		Name:        "Job Announcer",
		Description: "Prints a message when the active job changes.",
		Type:        feature.TypeUI,
	}, deps, nil)
	return f
}

// Setup loads settings and makes the feature ready.
func (f *Feature) Setup() error {
	f.cfg = feature.LoadConfig(f.Base, f.cfg)
	return f.Base.Setup()
}

// Enable subscribes to the tick and starts listening for job changes.
func (f *Feature) Enable() error {
	if err := f.Base.Enable(); err != nil {
		return err
	}
	if f.cancel == nil {
		f.cancel = f.OnJobChanged(f.announce)
	}
	return nil
}

// Disable stops listening and unsubscribes.
func (f *Feature) Disable() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.Base.Disable()
}

// Dispose disables the feature and retires it.
func (f *Feature) Dispose() {
	f.Disable()
	f.Base.Dispose()
}

// Settings implements feature.Configurable.
func (f *Feature) Settings() any { return f.cfg }

// Fields implements feature.Configurable.
func (f *Feature) Fields() []settings.Field {
	return []settings.Field{
		settings.Bool("announce", "Announce job changes", &f.cfg.Announce),
	}
}

func (f *Feature) announce(job uint32) {
	if !f.cfg.Announce {
		return
	}
	f.PrintModuleMessage(fmt.Sprintf("Job changed to %d.", job))
}
