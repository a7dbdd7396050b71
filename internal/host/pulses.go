package host

import (
	"fmt"

	"github.com/nerrad567/tickpilot/internal/infrastructure/mqtt"
)

// Subscriber is the subset of *mqtt.Client used by PulseSource.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// PulseSource turns host tick messages into pulses for RunPulses.
//
// Pulses that arrive while the previous one is still unconsumed are
// dropped; the engine never runs more than one tick per host frame.
type PulseSource struct {
	sub    Subscriber
	topic  string
	pulses chan struct{}
	logger Logger
}

// NewPulseSource creates a source for the host tick topic.
func NewPulseSource(sub Subscriber, logger Logger) *PulseSource {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PulseSource{
		sub:    sub,
		topic:  mqtt.Topics{}.HostTick(),
		pulses: make(chan struct{}, 1),
		logger: logger,
	}
}

// Pulses returns the channel to pass to RunPulses.
func (p *PulseSource) Pulses() <-chan struct{} {
	return p.pulses
}

// Start subscribes to the tick topic.
func (p *PulseSource) Start() error {
	if err := p.sub.Subscribe(p.topic, 0, p.handle); err != nil {
		return fmt.Errorf("subscribing to host ticks: %w", err)
	}
	return nil
}

// Stop unsubscribes. The pulse channel stays open.
func (p *PulseSource) Stop() error {
	if err := p.sub.Unsubscribe(p.topic); err != nil {
		return fmt.Errorf("unsubscribing from host ticks: %w", err)
	}
	return nil
}

func (p *PulseSource) handle(string, []byte) error {
	select {
	case p.pulses <- struct{}{}:
	default:
		p.logger.Debug("host tick dropped, engine behind")
	}
	return nil
}
