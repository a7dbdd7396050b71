package feature

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nerrad567/tickpilot/internal/dispatch"
	"github.com/nerrad567/tickpilot/internal/hoststate"
	"github.com/nerrad567/tickpilot/internal/notify"
	"github.com/nerrad567/tickpilot/internal/settings"
	"github.com/nerrad567/tickpilot/internal/taskmanager"
	"github.com/nerrad567/tickpilot/internal/throttle"
)

// storeTimeout bounds a single settings read or write.
const storeTimeout = 5 * time.Second

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

// Scheduler is the host tick subscription surface. *host.Framework
// implements it.
type Scheduler interface {
	Subscribe(key string, fn func()) bool
	Unsubscribe(key string) bool
}

// Deps holds the collaborators shared by every feature.
type Deps struct {
	Scheduler  Scheduler
	Reader     hoststate.Reader
	Dispatcher dispatch.Dispatcher
	Throttles  *throttle.Registry

	// Store persists settings. Optional; without it settings stay at
	// their defaults.
	Store settings.Store

	// Notifier delivers PrintModuleMessage output. Optional.
	Notifier notify.Notifier

	// Events receives lifecycle events. Optional.
	Events Broadcaster

	// TaskObserver receives task step outcomes. Optional.
	TaskObserver taskmanager.Observer

	Logger Logger

	// PluginName prefixes user messages.
	PluginName string

	// StepTimeout is the task manager's default step timeout.
	StepTimeout time.Duration

	// TimeoutSilently is applied to the task manager on Setup.
	TimeoutSilently bool

	// AbortOnTimeout drops the remaining steps after a failed one.
	AbortOnTimeout bool

	Now func() time.Time
}

type jobListener struct {
	id int
	fn func(job uint32)
}

// Base implements the shared feature mechanics. Embed it by pointer.
type Base struct {
	*UI

	info       Info
	scheduler  Scheduler
	reader     hoststate.Reader
	store      settings.Store
	notifier   notify.Notifier
	events     Broadcaster
	logger     Logger
	pluginName string
	silent     bool
	now        func() time.Time

	tasks *taskmanager.Manager
	logic func()

	state State
	job   *uint32
	fault string

	listeners    []jobListener
	nextListener int
}

// NewBase creates the shared state for a feature. logic is the feature's
// own per-tick work; it may be nil.
func NewBase(info Info, deps Deps, logic func()) *Base {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	events := deps.Events
	if events == nil {
		events = noopBroadcaster{}
	}
	timeout := deps.StepTimeout
	if timeout == 0 {
		timeout = taskmanager.DefaultTimeout
	}

	b := &Base{
		UI:         NewUI(deps.Reader, deps.Dispatcher, deps.Throttles, logger),
		info:       info,
		scheduler:  deps.Scheduler,
		reader:     deps.Reader,
		store:      deps.Store,
		notifier:   deps.Notifier,
		events:     events,
		logger:     logger,
		pluginName: deps.PluginName,
		silent:     deps.TimeoutSilently,
		now:        now,
		logic:      logic,
	}
	b.tasks = taskmanager.New(
		taskmanager.WithOwner(info.Key),
		taskmanager.WithLogger(logger),
		taskmanager.WithObserver(deps.TaskObserver),
		taskmanager.WithClock(now),
		taskmanager.WithDefaultTimeout(timeout),
		taskmanager.WithAbortOnTimeout(deps.AbortOnTimeout),
		taskmanager.WithFailureHandler(b.stepFailed),
	)
	return b
}

// Info implements Feature.
func (b *Base) Info() Info { return b.info }

// Key returns the feature key.
func (b *Base) Key() string { return b.info.Key }

// Name returns the display name.
func (b *Base) Name() string { return b.info.Name }

// TaskManager returns the feature's own task manager.
func (b *Base) TaskManager() *taskmanager.Manager { return b.tasks }

// Logger returns the feature's logger.
func (b *Base) Logger() Logger { return b.logger }

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// Enabled reports whether the feature is subscribed to the tick.
func (b *Base) Enabled() bool { return b.state == StateEnabled }

// Ready reports whether Setup has completed and Dispose has not run.
func (b *Base) Ready() bool {
	return b.state == StateDisabled || b.state == StateEnabled
}

// JobID returns the last observed job.
func (b *Base) JobID() (uint32, bool) {
	if b.job == nil {
		return 0, false
	}
	return *b.job, true
}

// Fault returns the diagnostic text of the most recent tick panic.
func (b *Base) Fault() string { return b.fault }

// Status implements Feature.
func (b *Base) Status() Status {
	s := Status{
		Info:    b.info,
		State:   b.state,
		Enabled: b.Enabled(),
		Ready:   b.Ready(),
		Pending: b.tasks.NumQueued(),
		Fault:   b.fault,
	}
	if name, ok := b.tasks.InFlight(); ok {
		s.InFlight = name
	}
	if b.job != nil {
		id := *b.job
		s.JobID = &id
	}
	return s
}

// Setup marks the task manager silent on timeout, seeds the observed job
// and makes the feature ready. Concrete features that load settings do so
// before calling it. Calling Setup on a ready feature does nothing.
func (b *Base) Setup() error {
	switch b.state {
	case StateDisposed:
		return ErrDisposed
	case StateDisabled, StateEnabled:
		return nil
	}

	b.tasks.SetTimeoutSilently(b.silent)
	if b.reader != nil {
		if job, ok := b.reader.CurrentJob(); ok {
			b.job = &job
		}
	}
	b.state = StateDisabled
	b.logger.Debug("feature ready", "feature", b.info.Key)
	return nil
}

// Enable subscribes the feature to the host tick. Enabling an enabled
// feature does nothing.
func (b *Base) Enable() error {
	if !b.Ready() {
		return fmt.Errorf("enabling %s: %w", b.info.Key, ErrNotReady)
	}
	if b.state == StateEnabled {
		return nil
	}

	b.logger.Debug("enabling feature", "feature", b.info.Key)
	b.scheduler.Subscribe(b.info.Key, b.tick)
	b.state = StateEnabled
	b.publish(ChannelEnabled, Event{})
	return nil
}

// Disable unsubscribes the feature and abandons its queued steps.
// Disabling a feature that is not enabled does nothing.
func (b *Base) Disable() {
	if b.state != StateEnabled {
		return
	}

	b.logger.Debug("disabling feature", "feature", b.info.Key)
	b.scheduler.Unsubscribe(b.info.Key)
	b.tasks.Abort()
	b.state = StateDisabled
	b.publish(ChannelDisabled, Event{})
}

// Dispose disables the feature if needed and retires it. It is safe in
// any state.
func (b *Base) Dispose() {
	b.Disable()
	b.state = StateDisposed
}

// OnJobChanged registers fn to be called with the new job whenever the
// observed job changes to a different known value. The returned function
// removes the listener.
func (b *Base) OnJobChanged(fn func(job uint32)) (cancel func()) {
	b.nextListener++
	id := b.nextListener
	b.listeners = append(b.listeners, jobListener{id: id, fn: fn})

	return func() {
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// ObserveJob records job and notifies listeners if it differs from the
// last observed job. Unknown readings never notify.
func (b *Base) ObserveJob(job uint32, known bool) {
	if !known {
		return
	}
	if b.job != nil && *b.job == job {
		return
	}
	b.job = &job

	b.logger.Debug("job changed", "feature", b.info.Key, "job_id", job)
	for _, l := range b.listeners {
		b.guard("job listener panicked", func() { l.fn(job) })
	}
	id := job
	b.publish(ChannelJobChanged, Event{JobID: &id})
}

func (b *Base) tick() {
	if b.reader != nil {
		b.ObserveJob(b.reader.CurrentJob())
	}
	b.runLogic()
	b.tasks.Tick()
}

func (b *Base) runLogic() {
	if b.logic == nil {
		return
	}
	b.guard("feature tick panicked", b.logic)
}

// guard runs fn and turns a panic into the feature's fault text, a log
// entry and a fault event.
func (b *Base) guard(msg string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.fault = fmt.Sprintf("%v", r)
			b.logger.Error(msg,
				"feature", b.info.Key,
				"panic", b.fault,
				"stack", string(debug.Stack()),
			)
			b.publish(ChannelFault, Event{Error: b.fault})
		}
	}()
	fn()
}

func (b *Base) stepFailed(f taskmanager.Failure) {
	b.publish(ChannelStepFailed, Event{Step: f.Step, Error: f.Err.Error()})
}

func (b *Base) publish(channel string, ev Event) {
	ev.Key = b.info.Key
	ev.Name = b.info.Name
	ev.Time = b.now()
	b.events.Broadcast(channel, ev)
}

// PrintModuleMessage sends text to the user attributed to this feature.
func (b *Base) PrintModuleMessage(text string) {
	b.PrintTaggedMessage("", text)
}

// PrintTaggedMessage sends tagged text to the user attributed to this
// feature.
func (b *Base) PrintTaggedMessage(tag, text string) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(notify.Message{
		Plugin:  b.pluginName,
		Feature: b.info.Name,
		Tag:     tag,
		Text:    text,
		Time:    b.now(),
	})
}

// LoadConfig returns the settings stored under the feature key, or def
// when none are stored or they cannot be read. Read failures are logged
// as warnings.
func LoadConfig[T any](b *Base, def T) T {
	return LoadConfigKey(b, b.info.Key, def)
}

// LoadConfigKey is LoadConfig for an explicit key.
func LoadConfigKey[T any](b *Base, key string, def T) T {
	if b.store == nil {
		return def
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	v := def
	if err := b.store.Load(ctx, key, &v); err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			b.logger.Warn("failed to load settings, using defaults", "feature", b.info.Key, "key", key, "error", err)
		}
		return def
	}
	return v
}

// SaveConfig persists v under the feature key. Failures are logged and
// returned.
func (b *Base) SaveConfig(v any) error {
	return b.SaveConfigKey(b.info.Key, v)
}

// SaveConfigKey persists v under key.
func (b *Base) SaveConfigKey(key string, v any) error {
	if b.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := b.store.Save(ctx, key, v); err != nil {
		b.logger.Error("failed to save settings", "feature", b.info.Key, "key", key, "error", err)
		return fmt.Errorf("saving settings for %s: %w", key, err)
	}
	return nil
}
