package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPublishFailed wraps transport errors in diagnostics.
var ErrPublishFailed = errors.New("notify: publish failed")

// ChannelNotification is the event hub channel messages are broadcast on.
const ChannelNotification = "notification"

// Message is one user-visible notification.
type Message struct {
	Plugin  string    `json:"plugin"`
	Feature string    `json:"feature"`
	Tag     string    `json:"tag,omitempty"`
	Text    string    `json:"text"`
	Time    time.Time `json:"time"`
}

// String renders the message the way the host displays it.
func (m Message) String() string {
	var b strings.Builder
	if m.Plugin != "" {
		fmt.Fprintf(&b, "[%s] ", m.Plugin)
	}
	if m.Feature != "" {
		fmt.Fprintf(&b, "[%s] ", m.Feature)
	}
	if m.Tag != "" {
		fmt.Fprintf(&b, "[%s] ", m.Tag)
	}
	b.WriteString(m.Text)
	return b.String()
}

// Notifier delivers messages.
type Notifier interface {
	Notify(msg Message)
}

// Logger is the logging interface used by this package.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Publisher is the subset of *mqtt.Client used by MQTTNotifier.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTNotifier publishes messages to the host chat topic.
type MQTTNotifier struct {
	pub    Publisher
	topic  string
	logger Logger
}

// NewMQTTNotifier creates a notifier publishing to topic.
func NewMQTTNotifier(pub Publisher, topic string, logger Logger) *MQTTNotifier {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTNotifier{pub: pub, topic: topic, logger: logger}
}

// Notify implements Notifier.
func (n *MQTTNotifier) Notify(msg Message) {
	if err := n.pub.PublishJSON(n.topic, msg, false); err != nil {
		n.logger.Warn("notification not delivered",
			"feature", msg.Feature,
			"error", fmt.Errorf("%w: %w", ErrPublishFailed, err),
		)
	}
}

// Broadcaster is the subset of the API event hub used by HubNotifier.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubNotifier broadcasts messages to WebSocket clients.
type HubNotifier struct {
	hub Broadcaster
}

// NewHubNotifier creates a notifier broadcasting through hub.
func NewHubNotifier(hub Broadcaster) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// Notify implements Notifier.
func (n *HubNotifier) Notify(msg Message) {
	n.hub.Broadcast(ChannelNotification, msg)
}

// LogNotifier writes messages to the log. Used when no host is connected.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a notifier logging at info level.
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(msg Message) {
	n.logger.Info(msg.String(), "feature", msg.Feature, "tag", msg.Tag)
}

// Multi fans a message out to every notifier in order. nil entries are
// skipped.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}

// Func adapts a function to Notifier.
type Func func(Message)

// Notify implements Notifier.
func (f Func) Notify(msg Message) { f(msg) }
