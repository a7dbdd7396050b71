package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/tickpilot/internal/infrastructure/config"
	"github.com/nerrad567/tickpilot/internal/infrastructure/database"
	"github.com/nerrad567/tickpilot/migrations"
)

type sample struct {
	Enabled  bool    `json:"enabled"`
	Cooldown int     `json:"cooldown"`
	Ratio    float64 `json:"ratio"`
}

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath, BusyTimeout: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx, migrations.FS))
	return NewSQLiteStore(db.DB)
}

// ─── Settings documents ─────────────────────────────────────────────

func TestStore_LoadMissing(t *testing.T) {
	s := setupStore(t)

	var got sample
	err := s.Load(context.Background(), "autoconfirm", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	want := sample{Enabled: true, Cooldown: 350, Ratio: 0.25}
	require.NoError(t, s.Save(ctx, "autoconfirm", want))

	var got sample
	require.NoError(t, s.Load(ctx, "autoconfirm", &got))
	assert.Equal(t, want, got)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", sample{Cooldown: 1}))
	require.NoError(t, s.Save(ctx, "k", sample{Cooldown: 2}))

	var got sample
	require.NoError(t, s.Load(ctx, "k", &got))
	assert.Equal(t, 2, got.Cooldown)
}

func TestStore_LoadCorruptPayload(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feature_settings (feature_key, payload, updated_at) VALUES ('k', '{not json', 'x')`)
	require.NoError(t, err)

	var got sample
	err = s.Load(ctx, "k", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", sample{}))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))

	var got sample
	assert.ErrorIs(t, s.Load(ctx, "k", &got), ErrNotFound)
}

// ─── Feature states ─────────────────────────────────────────────────

func TestStore_EnabledStates(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	states, err := s.LoadEnabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	require.NoError(t, s.SaveEnabled(ctx, "a", true))
	require.NoError(t, s.SaveEnabled(ctx, "b", true))
	require.NoError(t, s.SaveEnabled(ctx, "b", false))

	states, err = s.LoadEnabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": false}, states)
}
