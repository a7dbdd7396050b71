package taskmanager

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout applies to steps that set neither Timeout nor TimeoutTicks.
const DefaultTimeout = 10 * time.Second

// Outcome is how a step left the queue.
type Outcome int

const (
	// Completed means the condition held and the action (if any) succeeded.
	Completed Outcome = iota

	// TimedOut means the deadline passed first.
	TimedOut

	// Failed means the action returned an error or the step panicked.
	Failed

	// Aborted means the action requested ErrAbort.
	Aborted
)

// String returns the outcome name used in logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Failure describes a step that did not complete.
type Failure struct {
	Owner string
	Step  string
	Err   error
}

// Observer receives every step outcome. Used for telemetry.
type Observer interface {
	StepFinished(owner, step string, outcome Outcome, elapsed time.Duration)
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type inflight struct {
	step     Step
	started  time.Time
	deadline time.Time // zero when tick-counted or unbounded
	evals    int
}

// Manager is a FIFO of steps owned by one feature.
type Manager struct {
	owner          string
	queue          []Step
	current        *inflight
	defaultTimeout time.Duration
	silent         bool
	abortOnTimeout bool
	onFailure      func(Failure)
	logger         Logger
	observer       Observer
	now            func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithOwner names the owning feature in logs and telemetry.
func WithOwner(owner string) Option {
	return func(m *Manager) { m.owner = owner }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver attaches an outcome observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDefaultTimeout sets the timeout for steps that do not declare one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(m *Manager) { m.defaultTimeout = d }
}

// WithTimeoutSilently sets the initial silent-timeout flag.
func WithTimeoutSilently(silent bool) Option {
	return func(m *Manager) { m.silent = silent }
}

// WithAbortOnTimeout sets whether a failed step drops the rest of the queue.
func WithAbortOnTimeout(abort bool) Option {
	return func(m *Manager) { m.abortOnTimeout = abort }
}

// WithFailureHandler sets the callback for reported failures.
func WithFailureHandler(fn func(Failure)) Option {
	return func(m *Manager) { m.onFailure = fn }
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		defaultTimeout: DefaultTimeout,
		abortOnTimeout: true,
		logger:         noopLogger{},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetTimeoutSilently sets whether timeouts are reported as failures.
func (m *Manager) SetTimeoutSilently(silent bool) { m.silent = silent }

// TimeoutSilently reports the silent-timeout flag.
func (m *Manager) TimeoutSilently() bool { return m.silent }

// SetAbortOnTimeout sets whether a failed step drops the rest of the queue.
func (m *Manager) SetAbortOnTimeout(abort bool) { m.abortOnTimeout = abort }

// SetFailureHandler replaces the failure callback.
func (m *Manager) SetFailureHandler(fn func(Failure)) { m.onFailure = fn }

// Enqueue appends steps to the tail. It never preempts the in-flight step.
func (m *Manager) Enqueue(steps ...Step) {
	m.queue = append(m.queue, steps...)
}

// EnqueueDelay appends a step that completes once d has passed since it
// became in flight.
func (m *Manager) EnqueueDelay(d time.Duration) {
	var until time.Time
	m.Enqueue(Step{
		Name: fmt.Sprintf("delay %s", d),
		Condition: func() bool {
			now := m.now()
			if until.IsZero() {
				until = now.Add(d)
			}
			return !now.Before(until)
		},
		Timeout: NoTimeout,
	})
}

// EnqueueDelayTicks appends a step that completes on its n-th evaluation.
func (m *Manager) EnqueueDelayTicks(n int) {
	evals := 0
	m.Enqueue(Step{
		Name: fmt.Sprintf("delay %d ticks", n),
		Condition: func() bool {
			evals++
			return evals >= n
		},
		Timeout: NoTimeout,
	})
}

// Abort drops the in-flight step and everything queued.
func (m *Manager) Abort() {
	if m.current != nil || len(m.queue) > 0 {
		m.logger.Debug("task queue aborted", "owner", m.owner, "dropped", m.NumQueued())
	}
	m.current = nil
	m.queue = nil
}

// IsBusy reports whether a step is in flight or queued.
func (m *Manager) IsBusy() bool {
	return m.current != nil || len(m.queue) > 0
}

// Pending returns the number of queued steps not yet in flight.
func (m *Manager) Pending() int {
	return len(m.queue)
}

// NumQueued returns pending steps plus the in-flight step.
func (m *Manager) NumQueued() int {
	n := len(m.queue)
	if m.current != nil {
		n++
	}
	return n
}

// InFlight returns the name of the in-flight step.
func (m *Manager) InFlight() (string, bool) {
	if m.current == nil {
		return "", false
	}
	return m.current.step.Name, true
}

// PendingNames returns the names of queued steps in order.
func (m *Manager) PendingNames() []string {
	names := make([]string, len(m.queue))
	for i, s := range m.queue {
		names[i] = s.Name
	}
	return names
}

// Tick advances the queue by one evaluation.
func (m *Manager) Tick() {
	if m.current == nil {
		if len(m.queue) == 0 {
			return
		}
		m.begin()
	}

	cur := m.current
	cur.evals++

	ready, err := m.evaluate(cur.step)
	if err != nil {
		m.fail(cur, Failed, err)
		return
	}

	if ready {
		m.complete(cur)
		return
	}

	if m.expired(cur) {
		m.fail(cur, TimedOut, ErrTimeout)
	}
}

func (m *Manager) begin() {
	step := m.queue[0]
	m.queue[0] = Step{}
	m.queue = m.queue[1:]

	now := m.now()
	cur := &inflight{step: step, started: now}
	if step.TimeoutTicks <= 0 {
		timeout := step.Timeout
		if timeout == 0 {
			timeout = m.defaultTimeout
		}
		if timeout > 0 {
			cur.deadline = now.Add(timeout)
		}
	}
	m.current = cur
}

func (m *Manager) expired(cur *inflight) bool {
	if cur.step.TimeoutTicks > 0 {
		return cur.evals >= cur.step.TimeoutTicks
	}
	return !cur.deadline.IsZero() && !m.now().Before(cur.deadline)
}

func (m *Manager) complete(cur *inflight) {
	err := m.act(cur.step)
	switch {
	case errors.Is(err, ErrAbort):
		m.current = nil
		m.observe(cur, Aborted)
		m.logger.Info("task queue aborted by step", "owner", m.owner, "step", cur.step.Name, "dropped", len(m.queue))
		m.queue = nil
	case err != nil:
		m.fail(cur, Failed, err)
	default:
		m.current = nil
		m.observe(cur, Completed)
	}
}

func (m *Manager) fail(cur *inflight, outcome Outcome, err error) {
	m.current = nil
	m.observe(cur, outcome)

	elapsed := m.now().Sub(cur.started)
	if outcome == TimedOut && m.silent {
		m.logger.Warn("task step timed out", "owner", m.owner, "step", cur.step.Name, "elapsed", elapsed, "evaluations", cur.evals)
	} else {
		m.logger.Error("task step failed", "owner", m.owner, "step", cur.step.Name, "elapsed", elapsed, "error", err)
		if m.onFailure != nil {
			m.onFailure(Failure{Owner: m.owner, Step: cur.step.Name, Err: err})
		}
	}

	if m.abortOnTimeout && len(m.queue) > 0 {
		m.logger.Debug("dropping remaining steps", "owner", m.owner, "dropped", len(m.queue))
		m.queue = nil
	}
}

func (m *Manager) observe(cur *inflight, outcome Outcome) {
	if m.observer != nil {
		m.observer.StepFinished(m.owner, cur.step.Name, outcome, m.now().Sub(cur.started))
	}
}

func (m *Manager) evaluate(step Step) (ready bool, err error) {
	if step.Condition == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ready, err = false, fmt.Errorf("%w: condition: %v", ErrStepPanic, r)
		}
	}()
	return step.Condition(), nil
}

func (m *Manager) act(step Step) (err error) {
	if step.Action == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: action: %v", ErrStepPanic, r)
		}
	}()
	return step.Action()
}
