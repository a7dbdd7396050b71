package feature_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/feature/featuretest"
	"github.com/nerrad567/tickpilot/internal/settings"
)

type tunable struct {
	*feature.Base
	cfg     testSettings
	changed int
}

func newTunable(h *featuretest.Harness, key string) *tunable {
	f := &tunable{cfg: testSettings{Cooldown: 300}}
	f.Base = feature.NewBase(feature.Info{Key: key, Name: "Tunable " + key, Type: feature.TypeActions}, h.Deps(), nil)
	return f
}

func (f *tunable) Setup() error {
	f.cfg = feature.LoadConfig(f.Base, f.cfg)
	return f.Base.Setup()
}

func (f *tunable) Settings() any { return f.cfg }

func (f *tunable) Fields() []settings.Field {
	return []settings.Field{
		settings.Int("cooldown", "Cooldown (ms)", &f.cfg.Cooldown, 50, 2000, 50),
		settings.Bool("loud", "Loud", &f.cfg.Loud, settings.WithPriority(-1)),
	}
}

func (f *tunable) ConfigChanged() { f.changed++ }

var _ feature.Configurable = (*tunable)(nil)

func TestRegistry_RegisterDuplicate(t *testing.T) {
	h := featuretest.New(t)
	r := feature.NewRegistry()

	require.NoError(t, r.Register(feature.NewBase(testInfo, h.Deps(), nil)))
	assert.ErrorIs(t, r.Register(feature.NewBase(testInfo, h.Deps(), nil)), feature.ErrDuplicate)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SetupAllRestoresEnabled(t *testing.T) {
	h := featuretest.New(t)
	h.Store.Enabled["persisted-on"] = true
	h.Store.Enabled["config-on-persisted-off"] = false

	r := feature.NewRegistry(feature.WithStateStore(h.Store))
	for _, key := range []string{"config-on", "persisted-on", "config-on-persisted-off", "off"} {
		require.NoError(t, r.Register(feature.NewBase(feature.Info{Key: key}, h.Deps(), nil)))
	}

	configured := map[string]bool{"config-on": true, "config-on-persisted-off": true}
	r.SetupAll(context.Background(), func(key string) bool { return configured[key] })

	enabled := map[string]bool{}
	for _, s := range r.List() {
		assert.True(t, s.Ready, s.Key)
		enabled[s.Key] = s.Enabled
	}
	assert.Equal(t, map[string]bool{
		"config-on":               true,
		"persisted-on":            true,
		"config-on-persisted-off": false,
		"off":                     false,
	}, enabled)
}

func TestRegistry_EnableDisablePersists(t *testing.T) {
	h := featuretest.New(t)
	r := feature.NewRegistry(feature.WithStateStore(h.Store))
	require.NoError(t, r.Register(feature.NewBase(testInfo, h.Deps(), nil)))
	r.SetupAll(context.Background(), nil)
	ctx := context.Background()

	require.NoError(t, r.Enable(ctx, testInfo.Key))
	assert.True(t, h.Store.Enabled[testInfo.Key])
	assert.True(t, h.Framework.Subscribed(testInfo.Key))

	require.NoError(t, r.Disable(ctx, testInfo.Key))
	assert.False(t, h.Store.Enabled[testInfo.Key])

	assert.ErrorIs(t, r.Enable(ctx, "nope"), feature.ErrNotFound)
	assert.ErrorIs(t, r.Disable(ctx, "nope"), feature.ErrNotFound)
}

func TestRegistry_EnableNotReady(t *testing.T) {
	h := featuretest.New(t)
	r := feature.NewRegistry(feature.WithStateStore(h.Store))
	require.NoError(t, r.Register(feature.NewBase(testInfo, h.Deps(), nil)))

	assert.ErrorIs(t, r.Enable(context.Background(), testInfo.Key), feature.ErrNotReady)
	_, saved := h.Store.Enabled[testInfo.Key]
	assert.False(t, saved)
}

func TestRegistry_ListSortedAndStatus(t *testing.T) {
	h := featuretest.New(t)
	r := feature.NewRegistry()
	for _, key := range []string{"zeta", "alpha"} {
		require.NoError(t, r.Register(feature.NewBase(feature.Info{Key: key}, h.Deps(), nil)))
	}

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Key)
	assert.Equal(t, feature.StateUninitialized, list[0].State)

	_, err := r.Status("missing")
	assert.ErrorIs(t, err, feature.ErrNotFound)
	s, err := r.Status("zeta")
	require.NoError(t, err)
	assert.Equal(t, "zeta", s.Key)
}

func TestRegistry_Settings(t *testing.T) {
	h := featuretest.New(t)
	h.Store.Docs["tune"] = []byte(`{"cooldown": 450, "loud": false}`)
	f := newTunable(h, "tune")

	r := feature.NewRegistry()
	require.NoError(t, r.Register(f))
	require.NoError(t, r.Register(feature.NewBase(testInfo, h.Deps(), nil)))
	r.SetupAll(context.Background(), nil)

	views, err := r.Settings("tune")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "loud", views[0].Name)
	assert.Equal(t, 450, views[1].Value)

	_, err = r.Settings(testInfo.Key)
	assert.ErrorIs(t, err, feature.ErrNotConfigurable)
	_, err = r.Settings("missing")
	assert.ErrorIs(t, err, feature.ErrNotFound)
}

func TestRegistry_UpdateSettings(t *testing.T) {
	h := featuretest.New(t)
	f := newTunable(h, "tune")
	r := feature.NewRegistry()
	require.NoError(t, r.Register(f))
	r.SetupAll(context.Background(), nil)

	views, err := r.UpdateSettings("tune", map[string]any{"cooldown": 777.0, "loud": true})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, 800, f.cfg.Cooldown)
	assert.True(t, f.cfg.Loud)
	assert.Equal(t, 1, f.changed)
	assert.JSONEq(t, `{"cooldown": 800, "loud": true}`, string(h.Store.Docs["tune"]))

	_, err = r.UpdateSettings("tune", map[string]any{"volume": 11})
	assert.ErrorIs(t, err, settings.ErrUnknownField)
}

func TestRegistry_DisposeAll(t *testing.T) {
	h := featuretest.New(t)
	r := feature.NewRegistry()
	a := feature.NewBase(feature.Info{Key: "a"}, h.Deps(), nil)
	b := feature.NewBase(feature.Info{Key: "b"}, h.Deps(), nil)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	r.SetupAll(context.Background(), func(string) bool { return true })

	r.DisposeAll()

	assert.Equal(t, feature.StateDisposed, a.State())
	assert.Equal(t, feature.StateDisposed, b.State())
	assert.Empty(t, h.Framework.Subscribers())
}
