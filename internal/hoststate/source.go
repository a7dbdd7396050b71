package hoststate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/tickpilot/internal/infrastructure/mqtt"
)

// Subscriber is the subset of *mqtt.Client used by Source.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Poster runs work on the tick goroutine. *host.Framework implements it.
type Poster interface {
	Post(fn func())
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithPoster applies snapshots through p instead of on the MQTT handler
// goroutine, so every query made during one tick sees the same view.
// Snapshots arriving between ticks are coalesced; only the newest is
// applied.
func WithPoster(p Poster) SourceOption {
	return func(s *Source) { s.poster = p }
}

// Source feeds a SnapshotReader from the adapter's snapshot topic.
type Source struct {
	sub    Subscriber
	reader *SnapshotReader
	logger Logger
	topic  string
	poster Poster

	mu      sync.Mutex
	pending *Snapshot // nil clears the view
	queued  bool
}

// NewSource creates a Source. Call Start to subscribe.
func NewSource(sub Subscriber, reader *SnapshotReader, logger Logger, opts ...SourceOption) *Source {
	if logger == nil {
		logger = noopLogger{}
	}
	s := &Source{
		sub:    sub,
		reader: reader,
		logger: logger,
		topic:  mqtt.Topics{}.HostSnapshot(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the snapshot topic.
func (s *Source) Start() error {
	if err := s.sub.Subscribe(s.topic, 1, s.handle); err != nil {
		return fmt.Errorf("subscribing to host snapshots: %w", err)
	}
	s.logger.Info("host snapshot source started", "topic", s.topic)
	return nil
}

// Stop unsubscribes and drops the current snapshot so nothing acts on a
// view that is no longer being refreshed.
func (s *Source) Stop() error {
	defer s.reader.Reset()
	if err := s.sub.Unsubscribe(s.topic); err != nil {
		return fmt.Errorf("unsubscribing from host snapshots: %w", err)
	}
	return nil
}

func (s *Source) handle(_ string, payload []byte) error {
	if len(payload) == 0 {
		// Retained message cleared by the adapter on shutdown.
		s.deliver(nil)
		return nil
	}
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return err
	}
	s.deliver(&snap)
	return nil
}

func (s *Source) deliver(snap *Snapshot) {
	if s.poster == nil {
		s.apply(snap)
		return
	}

	s.mu.Lock()
	s.pending = snap
	if s.queued {
		s.mu.Unlock()
		return
	}
	s.queued = true
	s.mu.Unlock()
	s.poster.Post(s.flush)
}

// flush runs on the tick goroutine.
func (s *Source) flush() {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	s.queued = false
	s.mu.Unlock()
	s.apply(snap)
}

func (s *Source) apply(snap *Snapshot) {
	if snap == nil {
		s.reader.Reset()
		return
	}
	if err := s.reader.Apply(*snap); err != nil {
		if errors.Is(err, ErrStaleSnapshot) {
			s.logger.Debug("dropping stale host snapshot", "error", err)
			return
		}
		s.logger.Warn("applying host snapshot failed", "error", err)
	}
}
