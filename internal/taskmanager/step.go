package taskmanager

import "time"

// NoTimeout disables the deadline of a step.
const NoTimeout time.Duration = -1

// Step is one queued unit of work.
type Step struct {
	// Name identifies the step in logs and telemetry.
	Name string

	// Condition gates completion. nil means the step is ready immediately.
	Condition func() bool

	// Action runs once, on the tick Condition first holds. nil means none.
	Action func() error

	// Timeout bounds how long the step may stay in flight. Zero uses the
	// manager default; NoTimeout disables the deadline.
	Timeout time.Duration

	// TimeoutTicks, when positive, bounds the number of evaluations
	// instead and overrides Timeout.
	TimeoutTicks int
}

// Wait returns a step that completes once cond holds.
func Wait(name string, cond func() bool, timeout time.Duration) Step {
	return Step{Name: name, Condition: cond, Timeout: timeout}
}

// WaitTicks returns a step that completes once cond holds, giving up after
// n evaluations.
func WaitTicks(name string, cond func() bool, n int) Step {
	return Step{Name: name, Condition: cond, TimeoutTicks: n}
}

// Do returns a step that runs action on the tick it is dequeued.
func Do(name string, action func() error) Step {
	return Step{Name: name, Action: action}
}

// Then returns a step that waits for cond and then runs action.
func Then(name string, cond func() bool, action func() error, timeout time.Duration) Step {
	return Step{Name: name, Condition: cond, Action: action, Timeout: timeout}
}

// Until returns a step that calls attempt every tick until it reports
// success. attempt both acts and checks, which suits helpers that must be
// retried because what they read is only valid for one tick.
func Until(name string, attempt func() bool, timeout time.Duration) Step {
	return Step{Name: name, Condition: attempt, Timeout: timeout}
}
