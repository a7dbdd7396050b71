// Package database provides SQLite connectivity for TickPilot.
//
// The database holds per-feature settings and the persisted enabled set.
// Nothing on the tick path touches it except a feature's explicit
// LoadConfig/SaveConfig and enable/disable state changes.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Versioned up/down schema migrations read from an fs.FS
//   - In-memory databases for tests (path ":memory:")
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
