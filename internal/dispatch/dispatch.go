package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/tickpilot/internal/hoststate"
	"github.com/nerrad567/tickpilot/internal/infrastructure/mqtt"
)

// Dispatcher submits simulated input to the host.
type Dispatcher interface {
	// Select clicks the entry at index in a selection panel.
	Select(h hoststate.PanelHandle, index int) error

	// Confirm answers a yes/no panel.
	Confirm(h hoststate.PanelHandle, accept bool) error
}

// Observer receives the outcome of every submission. Used for telemetry.
type Observer interface {
	Dispatched(kind string, err error)
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Command is the wire form of one simulated input.
type Command struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Panel    string    `json:"panel"`
	Instance int       `json:"instance"`
	Index    *int      `json:"index,omitempty"`
	Accept   *bool     `json:"accept,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// Publisher is the subset of *mqtt.Client used by MQTTDispatcher.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTDispatcher publishes commands to tickpilot/host/command/{kind}.
type MQTTDispatcher struct {
	pub      Publisher
	logger   Logger
	observer Observer
	now      func() time.Time
}

// Option configures an MQTTDispatcher.
type Option func(*MQTTDispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l Logger) Option {
	return func(d *MQTTDispatcher) { d.logger = l }
}

// WithObserver attaches a submission observer.
func WithObserver(o Observer) Option {
	return func(d *MQTTDispatcher) { d.observer = o }
}

// WithClock replaces time.Now for IssuedAt.
func WithClock(now func() time.Time) Option {
	return func(d *MQTTDispatcher) { d.now = now }
}

// NewMQTTDispatcher creates a dispatcher publishing through pub.
func NewMQTTDispatcher(pub Publisher, opts ...Option) *MQTTDispatcher {
	d := &MQTTDispatcher{
		pub:    pub,
		logger: noopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ Dispatcher = (*MQTTDispatcher)(nil)

// Select implements Dispatcher.
func (d *MQTTDispatcher) Select(h hoststate.PanelHandle, index int) error {
	if index < 0 {
		return d.report(mqtt.CommandSelect, fmt.Errorf("%w: %d", ErrInvalidIndex, index))
	}
	cmd, err := d.command(mqtt.CommandSelect, h)
	if err != nil {
		return d.report(mqtt.CommandSelect, err)
	}
	cmd.Index = &index
	return d.submit(cmd)
}

// Confirm implements Dispatcher.
func (d *MQTTDispatcher) Confirm(h hoststate.PanelHandle, accept bool) error {
	cmd, err := d.command(mqtt.CommandConfirm, h)
	if err != nil {
		return d.report(mqtt.CommandConfirm, err)
	}
	cmd.Accept = &accept
	return d.submit(cmd)
}

func (d *MQTTDispatcher) command(kind string, h hoststate.PanelHandle) (Command, error) {
	if err := ValidateHandle(h); err != nil {
		return Command{}, err
	}
	return Command{
		ID:       uuid.NewString(),
		Kind:     kind,
		Panel:    h.Name,
		Instance: h.Instance,
		IssuedAt: d.now().UTC(),
	}, nil
}

func (d *MQTTDispatcher) submit(cmd Command) error {
	if err := d.pub.PublishJSON(mqtt.Topics{}.HostCommand(cmd.Kind), cmd, false); err != nil {
		d.logger.Warn("command submit failed", "kind", cmd.Kind, "panel", cmd.Panel, "id", cmd.ID, "error", err)
		return d.report(cmd.Kind, fmt.Errorf("%w: %w", ErrSubmitFailed, err))
	}
	d.logger.Debug("command submitted", "kind", cmd.Kind, "panel", cmd.Panel, "instance", cmd.Instance, "id", cmd.ID)
	return d.report(cmd.Kind, nil)
}

func (d *MQTTDispatcher) report(kind string, err error) error {
	if d.observer != nil {
		d.observer.Dispatched(kind, err)
	}
	return err
}

// ValidateHandle checks the parts of a handle a dispatcher can check
// without reading host state.
func ValidateHandle(h hoststate.PanelHandle) error {
	if h.Name == "" || h.Instance < 1 {
		return fmt.Errorf("%w: %q instance %d", ErrInvalidHandle, h.Name, h.Instance)
	}
	return nil
}
