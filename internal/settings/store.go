package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store persists settings documents keyed by feature key.
type Store interface {
	// Load decodes the stored document for key into dst. It returns
	// ErrNotFound when nothing is stored.
	Load(ctx context.Context, key string, dst any) error

	// Save replaces the stored document for key.
	Save(ctx context.Context, key string, v any) error
}

// StateStore persists which features are enabled.
type StateStore interface {
	LoadEnabled(ctx context.Context) (map[string]bool, error)
	SaveEnabled(ctx context.Context, key string, enabled bool) error
}

// SQLiteStore implements Store and StateStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ Store      = (*SQLiteStore)(nil)
	_ StateStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore creates a store on an opened, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string, dst any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM feature_settings WHERE feature_key = ?`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("querying settings for %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decoding settings for %s: %w", key, err)
	}
	return nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding settings for %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feature_settings (feature_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(feature_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key, string(payload), s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", key, err)
	}
	return nil
}

// Delete removes the stored document for key. Deleting a missing key is
// not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feature_settings WHERE feature_key = ?`, key); err != nil {
		return fmt.Errorf("deleting settings for %s: %w", key, err)
	}
	return nil
}

// LoadEnabled implements StateStore.
func (s *SQLiteStore) LoadEnabled(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT feature_key, enabled FROM feature_states`)
	if err != nil {
		return nil, fmt.Errorf("querying feature states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]bool)
	for rows.Next() {
		var key string
		var enabled int
		if err := rows.Scan(&key, &enabled); err != nil {
			return nil, fmt.Errorf("scanning feature state: %w", err)
		}
		states[key] = enabled == 1
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature states: %w", err)
	}
	return states, nil
}

// SaveEnabled implements StateStore.
func (s *SQLiteStore) SaveEnabled(ctx context.Context, key string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_states (feature_key, enabled, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(feature_key) DO UPDATE SET
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		key, v, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving feature state for %s: %w", key, err)
	}
	return nil
}
