// Package influxdb records engine telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 with connection management, batched
// non-blocking writes and health checks. The engine writes two
// measurements:
//
//   - step_outcomes: one point per finished task step, tagged by feature,
//     step and outcome, with the step's elapsed time
//   - dispatches: one point per submitted host command, tagged by kind and
//     result
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteStepOutcome("autoconfirm", "select-entry", "completed", 120*time.Millisecond)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are buffered and sent
// by the client library's background goroutine; write failures are
// delivered to the SetOnError callback.
package influxdb
