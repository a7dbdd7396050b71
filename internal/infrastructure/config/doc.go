// Package config handles loading and validating TickPilot configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with TICKPILOT_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// The engine section carries the automation defaults every feature shares:
// the tick source and interval, the generic throttle cooldown, and the task
// step timeout policy. The features section holds per-feature startup
// toggles keyed by feature key.
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
//     set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/tickpilot.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Engine.TickInterval)
package config
