// Package telemetry turns engine observations into metrics.
//
// Recorder implements the observer interfaces of the throttle, taskmanager,
// dispatch and host packages. Every observation increments Prometheus
// collectors on the Recorder's own registry, served by Handler. When a
// PointWriter is attached (the InfluxDB client), step outcomes and
// dispatches are also written as points.
//
// Collectors:
//
//	tickpilot_ticks_total
//	tickpilot_tick_duration_seconds
//	tickpilot_throttle_decisions_total{result}
//	tickpilot_steps_total{feature,outcome}
//	tickpilot_step_duration_seconds{feature}
//	tickpilot_dispatch_total{kind,result}
package telemetry
