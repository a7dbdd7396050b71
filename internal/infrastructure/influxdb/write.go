package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementStepOutcomes = "step_outcomes"
	MeasurementDispatches   = "dispatches"
)

// WriteStepOutcome records one finished task step.
func (c *Client) WriteStepOutcome(feature, step, outcome string, elapsed time.Duration) {
	c.WritePoint(MeasurementStepOutcomes,
		map[string]string{
			"feature": feature,
			"step":    step,
			"outcome": outcome,
		},
		map[string]any{
			"elapsed_ms": float64(elapsed) / float64(time.Millisecond),
		},
	)
}

// WriteDispatch records one submitted host command.
func (c *Client) WriteDispatch(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.WritePoint(MeasurementDispatches,
		map[string]string{
			"kind":   kind,
			"result": result,
		},
		map[string]any{
			"count": 1,
		},
	)
}

// WritePoint writes a point stamped now. Dropped when not connected.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, c.now()))
}
