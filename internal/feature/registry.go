package feature

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nerrad567/tickpilot/internal/settings"
)

// Registry owns the registered features. It must only be used from the
// tick goroutine.
type Registry struct {
	features []Feature
	byKey    map[string]Feature
	states   settings.StateStore
	logger   Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStateStore persists enabled state across restarts.
func WithStateStore(s settings.StateStore) RegistryOption {
	return func(r *Registry) { r.states = s }
}

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(l Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byKey:  make(map[string]Feature),
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds f. Keys must be unique.
func (r *Registry) Register(f Feature) error {
	key := f.Info().Key
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("registering %s: %w", key, ErrDuplicate)
	}
	r.features = append(r.features, f)
	r.byKey[key] = f
	return nil
}

// Get returns the feature registered under key.
func (r *Registry) Get(key string) (Feature, bool) {
	f, ok := r.byKey[key]
	return f, ok
}

// Len returns the number of registered features.
func (r *Registry) Len() int { return len(r.features) }

// SetupAll sets up every feature and enables those that wantEnabled
// reports or that were enabled when the process last ran. A feature whose
// Setup fails is logged and left uninitialised; the others continue.
func (r *Registry) SetupAll(ctx context.Context, wantEnabled func(key string) bool) {
	persisted := map[string]bool{}
	if r.states != nil {
		s, err := r.states.LoadEnabled(ctx)
		if err != nil {
			r.logger.Warn("failed to load feature states", "error", err)
		} else {
			persisted = s
		}
	}

	for _, f := range r.features {
		key := f.Info().Key
		if err := f.Setup(); err != nil {
			r.logger.Error("feature setup failed", "feature", key, "error", err)
			continue
		}

		enable, ok := persisted[key]
		if !ok && wantEnabled != nil {
			enable = wantEnabled(key)
		}
		if !enable {
			continue
		}
		if err := f.Enable(); err != nil {
			r.logger.Error("feature enable failed", "feature", key, "error", err)
		}
	}

	r.logger.Info("features set up", "count", len(r.features))
}

// Enable enables the feature under key and records the choice.
func (r *Registry) Enable(ctx context.Context, key string) error {
	f, ok := r.byKey[key]
	if !ok {
		return fmt.Errorf("enabling %s: %w", key, ErrNotFound)
	}
	if err := f.Enable(); err != nil {
		return err
	}
	r.saveState(ctx, key, true)
	return nil
}

// Disable disables the feature under key and records the choice.
func (r *Registry) Disable(ctx context.Context, key string) error {
	f, ok := r.byKey[key]
	if !ok {
		return fmt.Errorf("disabling %s: %w", key, ErrNotFound)
	}
	f.Disable()
	r.saveState(ctx, key, false)
	return nil
}

func (r *Registry) saveState(ctx context.Context, key string, enabled bool) {
	if r.states == nil {
		return
	}
	if err := r.states.SaveEnabled(ctx, key, enabled); err != nil {
		r.logger.Warn("failed to save feature state", "feature", key, "error", err)
	}
}

// List returns the status of every feature, ordered by key.
func (r *Registry) List() []Status {
	out := make([]Status, 0, len(r.features))
	for _, f := range r.features {
		out = append(out, f.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Status returns the status of the feature under key.
func (r *Registry) Status(key string) (Status, error) {
	f, ok := r.byKey[key]
	if !ok {
		return Status{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return f.Status(), nil
}

// Settings describes the editable settings of the feature under key.
func (r *Registry) Settings(key string) ([]settings.View, error) {
	c, err := r.configurable(key)
	if err != nil {
		return nil, err
	}
	return settings.Describe(c.Fields()), nil
}

// UpdateSettings applies values to the feature under key, persists the
// result and tells the feature its settings changed. Values applied
// before a rejected one are still saved.
func (r *Registry) UpdateSettings(key string, values map[string]any) ([]settings.View, error) {
	c, err := r.configurable(key)
	if err != nil {
		return nil, err
	}

	fields := c.Fields()
	patchErr := settings.Patch(fields, values)

	if err := c.SaveConfig(c.Settings()); err != nil {
		return nil, errors.Join(patchErr, err)
	}
	if rc, ok := c.(Reconfigurable); ok {
		rc.ConfigChanged()
	}
	if patchErr != nil {
		return nil, patchErr
	}
	return settings.Describe(fields), nil
}

func (r *Registry) configurable(key string) (Configurable, error) {
	f, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	c, ok := f.(Configurable)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotConfigurable)
	}
	return c, nil
}

// DisposeAll disposes every feature in reverse registration order.
func (r *Registry) DisposeAll() {
	for i := len(r.features) - 1; i >= 0; i-- {
		r.features[i].Dispose()
	}
}
