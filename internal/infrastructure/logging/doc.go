// Package logging provides structured logging for TickPilot.
//
// This package wraps Go's standard log/slog package so every component logs
// through the same handler with the same default fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Component-scoped child loggers
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	tm := taskmanager.New(taskmanager.WithLogger(logger.Component("taskmanager")))
//
// Never log MQTT passwords, InfluxDB tokens or JWT secrets.
package logging
