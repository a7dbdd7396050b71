// Package settings persists per-feature settings and describes them for
// editors.
//
// Persistence: Store saves one JSON document per feature key.
// StateStore records which features are enabled so the enabled set
// survives restarts. SQLiteStore implements both on the feature_settings
// and feature_states tables.
//
// Description: a feature that exposes settings returns a static list of
// Field descriptors bound to its settings struct by pointer. Editors (the
// HTTP API, the CLI) render and modify settings through the descriptors
// alone; nothing is discovered by reflection.
//
//	type Settings struct {
//	    Enabled  bool
//	    Cooldown int
//	}
//
//	func (f *Feature) Fields() []settings.Field {
//	    return []settings.Field{
//	        settings.Bool("enabled", "Enabled", &f.cfg.Enabled),
//	        settings.Int("cooldown_ms", "Cooldown (ms)", &f.cfg.Cooldown, 50, 2000, 50,
//	            settings.VisibleWhen(func() bool { return f.cfg.Enabled })),
//	    }
//	}
package settings
