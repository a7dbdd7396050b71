package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/tickpilot/internal/dispatch"
	"github.com/nerrad567/tickpilot/internal/host"
	"github.com/nerrad567/tickpilot/internal/taskmanager"
	"github.com/nerrad567/tickpilot/internal/throttle"
)

const namespace = "tickpilot"

// PointWriter receives time-series points. *influxdb.Client implements it.
type PointWriter interface {
	WriteStepOutcome(feature, step, outcome string, elapsed time.Duration)
	WriteDispatch(kind string, ok bool)
}

// Recorder collects engine metrics.
type Recorder struct {
	registry *prometheus.Registry
	points   PointWriter

	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	throttles    *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	dispatches   *prometheus.CounterVec
}

var (
	_ throttle.Observer    = (*Recorder)(nil)
	_ taskmanager.Observer = (*Recorder)(nil)
	_ dispatch.Observer    = (*Recorder)(nil)
	_ host.Observer        = (*Recorder)(nil)
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithPointWriter also writes step outcomes and dispatches to w.
func WithPointWriter(w PointWriter) Option {
	return func(r *Recorder) { r.points = w }
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(r *Recorder) {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Host ticks processed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent processing one host tick.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttle_decisions_total",
			Help:      "Throttle checks by result.",
		}, []string{"result"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Finished task steps by feature and outcome.",
		}, []string{"feature", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time task steps spent in flight.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feature"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Host commands submitted by kind and result.",
		}, []string{"kind", "result"}),
	}
	r.registry.MustRegister(r.ticks, r.tickDuration, r.throttles, r.steps, r.stepDuration, r.dispatches)

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// TickCompleted implements host.Observer.
func (r *Recorder) TickCompleted(d time.Duration) {
	r.ticks.Inc()
	r.tickDuration.Observe(d.Seconds())
}

// ThrottleDecision implements throttle.Observer.
func (r *Recorder) ThrottleDecision(_ string, allowed bool) {
	result := "refused"
	if allowed {
		result = "allowed"
	}
	r.throttles.WithLabelValues(result).Inc()
}

// StepFinished implements taskmanager.Observer.
func (r *Recorder) StepFinished(owner, step string, outcome taskmanager.Outcome, elapsed time.Duration) {
	r.steps.WithLabelValues(owner, outcome.String()).Inc()
	r.stepDuration.WithLabelValues(owner).Observe(elapsed.Seconds())
	if r.points != nil {
		r.points.WriteStepOutcome(owner, step, outcome.String(), elapsed)
	}
}

// Dispatched implements dispatch.Observer.
func (r *Recorder) Dispatched(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.dispatches.WithLabelValues(kind, result).Inc()
	if r.points != nil {
		r.points.WriteDispatch(kind, err == nil)
	}
}
