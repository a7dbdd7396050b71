// Package featuretest provides an in-memory environment for testing
// features: a real tick framework, snapshot reader and throttle registry
// on a fake clock, plus recording fakes for dispatch, settings, messages
// and events.
package featuretest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/host"
	"github.com/nerrad567/tickpilot/internal/hoststate"
	"github.com/nerrad567/tickpilot/internal/notify"
	"github.com/nerrad567/tickpilot/internal/settings"
	"github.com/nerrad567/tickpilot/internal/throttle"
)

// FrameInterval is how far Tick advances the clock.
const FrameInterval = 50 * time.Millisecond

// ─── Clock ──────────────────────────────────────────────────────────

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ─── Dispatcher ─────────────────────────────────────────────────────

// Dispatched is one recorded submission.
type Dispatched struct {
	Kind   string
	Handle hoststate.PanelHandle
	Index  int
	Accept bool
}

// Dispatcher records submissions. Set Err to make them fail.
type Dispatcher struct {
	Calls []Dispatched
	Err   error
}

// Select implements dispatch.Dispatcher.
func (d *Dispatcher) Select(h hoststate.PanelHandle, index int) error {
	if d.Err != nil {
		return d.Err
	}
	d.Calls = append(d.Calls, Dispatched{Kind: "select", Handle: h, Index: index})
	return nil
}

// Confirm implements dispatch.Dispatcher.
func (d *Dispatcher) Confirm(h hoststate.PanelHandle, accept bool) error {
	if d.Err != nil {
		return d.Err
	}
	d.Calls = append(d.Calls, Dispatched{Kind: "confirm", Handle: h, Accept: accept})
	return nil
}

// ─── Store ──────────────────────────────────────────────────────────

// Store is an in-memory settings.Store and settings.StateStore.
type Store struct {
	Docs    map[string][]byte
	Enabled map[string]bool
	LoadErr error
	SaveErr error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{Docs: map[string][]byte{}, Enabled: map[string]bool{}}
}

// Load implements settings.Store.
func (s *Store) Load(_ context.Context, key string, dst any) error {
	if s.LoadErr != nil {
		return s.LoadErr
	}
	data, ok := s.Docs[key]
	if !ok {
		return settings.ErrNotFound
	}
	return json.Unmarshal(data, dst)
}

// Save implements settings.Store.
func (s *Store) Save(_ context.Context, key string, v any) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Docs[key] = data
	return nil
}

// LoadEnabled implements settings.StateStore.
func (s *Store) LoadEnabled(context.Context) (map[string]bool, error) {
	out := make(map[string]bool, len(s.Enabled))
	for k, v := range s.Enabled {
		out[k] = v
	}
	return out, nil
}

// SaveEnabled implements settings.StateStore.
func (s *Store) SaveEnabled(_ context.Context, key string, enabled bool) error {
	s.Enabled[key] = enabled
	return nil
}

// ─── Events ─────────────────────────────────────────────────────────

// Broadcast is one recorded event.
type Broadcast struct {
	Channel string
	Event   feature.Event
}

// Hub records feature events.
type Hub struct {
	Events []Broadcast
}

// Broadcast implements feature.Broadcaster.
func (h *Hub) Broadcast(channel string, payload any) {
	ev, _ := payload.(feature.Event)
	h.Events = append(h.Events, Broadcast{Channel: channel, Event: ev})
}

// Channels returns the channel of every recorded event in order.
func (h *Hub) Channels() []string {
	out := make([]string, len(h.Events))
	for i, e := range h.Events {
		out[i] = e.Channel
	}
	return out
}

// Last returns the most recent event.
func (h *Hub) Last() (Broadcast, bool) {
	if len(h.Events) == 0 {
		return Broadcast{}, false
	}
	return h.Events[len(h.Events)-1], true
}

// ─── Harness ────────────────────────────────────────────────────────

// Harness wires a complete feature environment.
type Harness struct {
	Framework  *host.Framework
	Reader     *hoststate.SnapshotReader
	Dispatcher *Dispatcher
	Throttles  *throttle.Registry
	Store      *Store
	Hub        *Hub
	Clock      *Clock
	Messages   []notify.Message
}

// New returns a harness with no snapshot applied.
func New(t *testing.T) *Harness {
	t.Helper()
	clock := NewClock()
	return &Harness{
		Framework:  host.New(host.WithClock(clock.Now)),
		Reader:     hoststate.NewSnapshotReader(),
		Dispatcher: &Dispatcher{},
		Throttles:  throttle.NewRegistry(throttle.WithClock(clock.Now)),
		Store:      NewStore(),
		Hub:        &Hub{},
		Clock:      clock,
	}
}

// Deps returns feature dependencies backed by the harness.
func (h *Harness) Deps() feature.Deps {
	return feature.Deps{
		Scheduler:       h.Framework,
		Reader:          h.Reader,
		Dispatcher:      h.Dispatcher,
		Throttles:       h.Throttles,
		Store:           h.Store,
		Notifier:        notify.Func(func(m notify.Message) { h.Messages = append(h.Messages, m) }),
		Events:          h.Hub,
		PluginName:      "TickPilot",
		StepTimeout:     5 * time.Second,
		TimeoutSilently: true,
		AbortOnTimeout:  true,
		Now:             h.Clock.Now,
	}
}

// Apply replaces the host snapshot.
func (h *Harness) Apply(t *testing.T, s hoststate.Snapshot) {
	t.Helper()
	require.NoError(t, h.Reader.Apply(s))
}

// Tick advances the clock by one frame and runs one host tick.
func (h *Harness) Tick() {
	h.Clock.Advance(FrameInterval)
	h.Framework.Tick()
}

// TickN runs n ticks.
func (h *Harness) TickN(n int) {
	for range n {
		h.Tick()
	}
}

// ─── Snapshot builders ──────────────────────────────────────────────

// Job returns a pointer to id for Player.JobID.
func Job(id uint32) *uint32 { return &id }

// SelectString builds the string selection panel.
func SelectString(ready bool, entries ...hoststate.Entry) hoststate.Panel {
	return hoststate.Panel{
		Name:    hoststate.PanelSelectString,
		Ready:   ready,
		Visible: ready,
		Entries: entries,
	}
}

// Yesno builds a yes/no panel instance with a prompt.
func Yesno(instance int, ready bool, prompt string) hoststate.Panel {
	return hoststate.Panel{
		Name:     hoststate.PanelSelectYesno,
		Instance: instance,
		Ready:    ready,
		Visible:  true,
		Nodes:    map[string]hoststate.Node{hoststate.YesnoPromptNode: {Text: prompt, Visible: true}},
	}
}

// Entry builds a selection entry.
func Entry(text string, enabled bool) hoststate.Entry {
	return hoststate.Entry{Text: text, Enabled: enabled}
}
