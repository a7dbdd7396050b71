package throttle

import (
	"sort"
	"sync"
	"time"
)

// GenericKey is the shared key coordinating mutually exclusive UI
// interactions across unrelated features.
const GenericKey = "tickpilot.generic"

// DefaultGenericCooldown is the generic key's cooldown when none is configured.
const DefaultGenericCooldown = 200 * time.Millisecond

// Observer receives every throttle decision. Used for telemetry.
type Observer interface {
	ThrottleDecision(key string, allowed bool)
}

// Entry is a point-in-time view of one throttle key.
type Entry struct {
	Key       string        `json:"key"`
	LastFire  time.Time     `json:"last_fire"`
	Cooldown  time.Duration `json:"cooldown"`
	Remaining time.Duration `json:"remaining"`
}

type entry struct {
	lastFire time.Time
	cooldown time.Duration
}

// Registry tracks the last fire time and cooldown of every throttle key.
type Registry struct {
	mu              sync.Mutex
	entries         map[string]entry
	now             func() time.Time
	observer        Observer
	genericCooldown time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now. Tests use it to step time deterministically.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithObserver attaches a decision observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithGenericCooldown sets the cooldown used by Generic.
func WithGenericCooldown(d time.Duration) Option {
	return func(r *Registry) { r.genericCooldown = d }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:         make(map[string]entry),
		now:             time.Now,
		genericCooldown: DefaultGenericCooldown,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Throttle reports whether the action keyed by key may fire now.
//
// It returns true and records now as the last fire, with d as the new
// cooldown, when key is unseen or its previous cooldown has elapsed.
// Otherwise it returns false and leaves the entry untouched.
func (r *Registry) Throttle(key string, d time.Duration) bool {
	r.mu.Lock()
	now := r.now()
	e, seen := r.entries[key]
	allowed := !seen || now.Sub(e.lastFire) >= e.cooldown
	if allowed {
		r.entries[key] = entry{lastFire: now, cooldown: d}
	}
	obs := r.observer
	r.mu.Unlock()

	if obs != nil {
		obs.ThrottleDecision(key, allowed)
	}
	return allowed
}

// ForceReset rewrites key as if it had just fired with cooldown d,
// regardless of its current state.
func (r *Registry) ForceReset(key string, d time.Duration) {
	r.mu.Lock()
	r.entries[key] = entry{lastFire: r.now(), cooldown: d}
	r.mu.Unlock()
}

// Generic gates on the shared generic key with the configured cooldown.
func (r *Registry) Generic() bool {
	return r.Throttle(GenericKey, r.genericCooldown)
}

// RethrottleGeneric force-resets the generic key with the configured cooldown.
func (r *Registry) RethrottleGeneric() {
	r.ForceReset(GenericKey, r.genericCooldown)
}

// GenericCooldown returns the cooldown applied to the generic key.
func (r *Registry) GenericCooldown() time.Duration {
	return r.genericCooldown
}

// Remaining returns how long until key may fire again. Zero means it may
// fire now.
func (r *Registry) Remaining(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remainingLocked(key, r.now())
}

func (r *Registry) remainingLocked(key string, now time.Time) time.Duration {
	e, ok := r.entries[key]
	if !ok {
		return 0
	}
	if left := e.cooldown - now.Sub(e.lastFire); left > 0 {
		return left
	}
	return 0
}

// Snapshot returns every known key sorted by name.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]Entry, 0, len(r.entries))
	for k, e := range r.entries {
		out = append(out, Entry{
			Key:       k,
			LastFire:  e.lastFire,
			Cooldown:  e.cooldown,
			Remaining: r.remainingLocked(k, now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of keys seen so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
