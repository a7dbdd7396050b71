// Package autoconfirm answers known yes/no prompts and picks known entries
// from string selection panels.
package autoconfirm

import (
	"slices"
	"time"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/settings"
	"github.com/nerrad567/tickpilot/internal/taskmanager"
)

// Key is the feature key.
const Key = "autoconfirm"

// Settings are the persisted options.
type Settings struct {
	ConfirmYesno       bool     `json:"confirm_yesno"`
	SelectEntries      bool     `json:"select_entries"`
	Prompts            []string `json:"prompts"`
	Entries            []string `json:"entries"`
	CooldownMs         int      `json:"cooldown_ms"`
	StepTimeoutSeconds float64  `json:"step_timeout_seconds"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		ConfirmYesno:       true,
		SelectEntries:      true,
		Prompts:            []string{"Proceed?"},
		Entries:            []string{"Confirm"},
		CooldownMs:         500,
		StepTimeoutSeconds: 5,
	}
}

// Feature is the auto-confirm routine.
type Feature struct {
	*feature.Base
	cfg Settings
}

// New creates the feature.
func New(deps feature.Deps) *Feature {
	f := &Feature{cfg: DefaultSettings()}
	f.Base = feature.NewBase(feature.Info{
		Key:         Key,
		Name:        "Auto Confirm",
		Description: "Answers known yes/no prompts and selects known menu entries.",
		Type:        feature.TypeActions,
	}, deps, f.onTick)
	return f
}

// Setup loads settings and makes the feature ready.
func (f *Feature) Setup() error {
	f.cfg = feature.LoadConfig(f.Base, DefaultSettings())
	for _, field := range f.Fields() {
		field.Normalise()
	}
	return f.Base.Setup()
}

// Settings implements feature.Configurable.
func (f *Feature) Settings() any { return f.cfg }

// Fields implements feature.Configurable.
func (f *Feature) Fields() []settings.Field {
	return []settings.Field{
		settings.Bool("confirm_yesno", "Confirm yes/no prompts", &f.cfg.ConfirmYesno,
			settings.WithPriority(0)),
		settings.Bool("select_entries", "Select menu entries", &f.cfg.SelectEntries,
			settings.WithPriority(1)),
		settings.Int("cooldown_ms", "Selection cooldown (ms)", &f.cfg.CooldownMs, 50, 2000, 50,
			settings.WithPriority(2),
			settings.Enforced(),
			settings.VisibleWhen(func() bool { return f.cfg.SelectEntries }),
		),
		settings.Float("step_timeout_seconds", "Give up after (s)", &f.cfg.StepTimeoutSeconds, 0.5, 10, 0.5,
			settings.WithPriority(3),
			settings.Enforced(),
			settings.WithHelp("How long a queued confirm or select keeps retrying."),
		),
	}
}

// ConfigChanged drops queued work so the next decision uses the new
// settings.
func (f *Feature) ConfigChanged() {
	f.TaskManager().Abort()
}

func (f *Feature) stepTimeout() time.Duration {
	return time.Duration(f.cfg.StepTimeoutSeconds * float64(time.Second))
}

func (f *Feature) cooldown() time.Duration {
	return time.Duration(f.cfg.CooldownMs) * time.Millisecond
}

func (f *Feature) onTick() {
	tasks := f.TaskManager()
	if tasks.IsBusy() || f.IsLoading() || f.IsInDuty() {
		return
	}

	if f.cfg.ConfirmYesno && len(f.cfg.Prompts) > 0 {
		if _, ok := f.GetSpecificYesno(f.cfg.Prompts...); ok {
			prompts := slices.Clone(f.cfg.Prompts)
			tasks.Enqueue(taskmanager.Until("confirm-yesno", func() bool {
				return f.TryConfirmYesno(true, prompts...)
			}, f.stepTimeout()))
			return
		}
	}

	if f.cfg.SelectEntries && f.HasSpecificEntry(f.cfg.Entries...) {
		entries := slices.Clone(f.cfg.Entries)
		tasks.Enqueue(taskmanager.Until("select-entry", func() bool {
			return f.TrySelectSpecificEntry(entries, f.selectGate)
		}, f.stepTimeout()))
	}
}

func (f *Feature) selectGate() bool {
	return f.Throttles().Throttle(Key+".select", f.cooldown())
}
