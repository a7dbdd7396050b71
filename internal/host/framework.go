package host

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer is told about every completed tick. Used for telemetry.
type Observer interface {
	TickCompleted(d time.Duration)
}

type subscription struct {
	key     string
	fn      func()
	removed bool
}

// Framework drives subscribed hooks once per tick.
type Framework struct {
	subs []*subscription

	mu      sync.Mutex
	posted  []func()
	stopped bool

	ticks    atomic.Uint64
	lastTick atomic.Int64

	logger   Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Framework.
type Option func(*Framework)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(f *Framework) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithObserver attaches a tick observer.
func WithObserver(o Observer) Option {
	return func(f *Framework) { f.observer = o }
}

// WithClock replaces time.Now for tick timing.
func WithClock(now func() time.Time) Option {
	return func(f *Framework) { f.now = now }
}

// New creates a Framework with no subscribers.
func New(opts ...Option) *Framework {
	f := &Framework{logger: noopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe registers fn under key. It reports false, and changes
// nothing, if key is already subscribed.
func (f *Framework) Subscribe(key string, fn func()) bool {
	if f.Subscribed(key) {
		return false
	}
	f.subs = append(f.subs, &subscription{key: key, fn: fn})
	return true
}

// Unsubscribe removes key. It reports false if key was not subscribed.
// A hook unsubscribed during a tick is not called later in that tick.
func (f *Framework) Unsubscribe(key string) bool {
	for i, s := range f.subs {
		if s.key == key {
			s.removed = true
			f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Subscribed reports whether key is subscribed.
func (f *Framework) Subscribed(key string) bool {
	for _, s := range f.subs {
		if s.key == key {
			return true
		}
	}
	return false
}

// Subscribers returns the subscribed keys in call order.
func (f *Framework) Subscribers() []string {
	keys := make([]string, len(f.subs))
	for i, s := range f.subs {
		keys[i] = s.key
	}
	return keys
}

// Tick runs posted work and then every subscribed hook once.
func (f *Framework) Tick() {
	start := f.now()

	f.mu.Lock()
	posted := f.posted
	f.posted = nil
	f.mu.Unlock()

	for _, fn := range posted {
		f.invoke("posted", fn)
	}

	// Hooks subscribed during this tick first run on the next one.
	subs := make([]*subscription, len(f.subs))
	copy(subs, f.subs)
	for _, s := range subs {
		if s.removed {
			continue
		}
		f.invoke(s.key, s.fn)
	}

	d := f.now().Sub(start)
	f.ticks.Add(1)
	f.lastTick.Store(int64(d))
	if f.observer != nil {
		f.observer.TickCompleted(d)
	}
}

func (f *Framework) invoke(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("tick hook panicked", "subscriber", key, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post queues fn to run at the start of the next tick. Work posted after
// the framework stopped is dropped.
func (f *Framework) Post(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.posted = append(f.posted, fn)
}

// Call posts fn and waits for it to run on the tick goroutine.
//
// Returns:
//   - fn's error once it has run
//   - ctx.Err() if ctx ends first; fn may still run later
//   - ErrStopped if the framework is stopped
func (f *Framework) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)

	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return ErrStopped
	}
	f.posted = append(f.posted, func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("posted call panicked: %v", r)
			}
			done <- err
		}()
		err = fn()
	})
	f.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks every interval until ctx is cancelled. It returns nil on
// cancellation.
func (f *Framework) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	f.logger.Info("tick loop started", "source", "local", "interval", interval)
	defer f.stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.Tick()
		}
	}
}

// RunPulses ticks once per value received on pulses until ctx is
// cancelled or pulses is closed.
func (f *Framework) RunPulses(ctx context.Context, pulses <-chan struct{}) error {
	f.logger.Info("tick loop started", "source", "pulses")
	defer f.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-pulses:
			if !ok {
				return nil
			}
			f.Tick()
		}
	}
}

func (f *Framework) stop() {
	f.mu.Lock()
	f.stopped = true
	dropped := len(f.posted)
	f.posted = nil
	f.mu.Unlock()
	f.logger.Info("tick loop stopped", "ticks", f.Ticks(), "dropped_posts", dropped)
}

// Ticks returns the number of completed ticks.
func (f *Framework) Ticks() uint64 {
	return f.ticks.Load()
}

// LastTickDuration returns how long the most recent tick took.
func (f *Framework) LastTickDuration() time.Duration {
	return time.Duration(f.lastTick.Load())
}
