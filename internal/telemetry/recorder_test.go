package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/tickpilot/internal/taskmanager"
)

type point struct {
	measurement string
	tags        []string
}

type fakePoints struct {
	points []point
}

func (f *fakePoints) WriteStepOutcome(feature, step, outcome string, _ time.Duration) {
	f.points = append(f.points, point{"step", []string{feature, step, outcome}})
}

func (f *fakePoints) WriteDispatch(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	f.points = append(f.points, point{"dispatch", []string{kind, result}})
}

func TestRecorder_Ticks(t *testing.T) {
	r := NewRecorder()
	r.TickCompleted(time.Millisecond)
	r.TickCompleted(2 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(r.ticks), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.tickDuration))
}

func TestRecorder_ThrottleDecisions(t *testing.T) {
	r := NewRecorder()
	r.ThrottleDecision("a", true)
	r.ThrottleDecision("a", false)
	r.ThrottleDecision("b", false)

	assert.InDelta(t, 1, testutil.ToFloat64(r.throttles.WithLabelValues("allowed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.throttles.WithLabelValues("refused")), 0)
}

func TestRecorder_StepsAndPoints(t *testing.T) {
	pw := &fakePoints{}
	r := NewRecorder(WithPointWriter(pw))

	r.StepFinished("autoconfirm", "select-entry", taskmanager.Completed, 120*time.Millisecond)
	r.StepFinished("autoconfirm", "select-entry", taskmanager.TimedOut, 5*time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(r.steps.WithLabelValues("autoconfirm", "completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.steps.WithLabelValues("autoconfirm", "timed_out")), 0)
	require.Len(t, pw.points, 2)
	assert.Equal(t, []string{"autoconfirm", "select-entry", "timed_out"}, pw.points[1].tags)
}

func TestRecorder_Dispatches(t *testing.T) {
	pw := &fakePoints{}
	r := NewRecorder(WithPointWriter(pw))

	r.Dispatched("select", nil)
	r.Dispatched("confirm", errors.New("not connected"))

	assert.InDelta(t, 1, testutil.ToFloat64(r.dispatches.WithLabelValues("select", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.dispatches.WithLabelValues("confirm", "error")), 0)
	assert.Equal(t, []string{"confirm", "error"}, pw.points[1].tags)
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(WithRuntimeCollectors())
	r.TickCompleted(time.Millisecond)
	r.Dispatched("select", nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "tickpilot_ticks_total 1")
	assert.Contains(t, body, `tickpilot_dispatch_total{kind="select",result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
