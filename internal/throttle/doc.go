// Package throttle provides the keyed cooldown registry shared by every
// feature.
//
// A throttle is a named gate: Throttle(key, d) reports whether the action
// keyed by key may fire now and, if so, records the fire so the next call
// within d is refused. Keys are created on first use and live for the
// lifetime of the Registry.
//
// One key is intentionally shared across features: the generic key
// (GenericKey). It serialises unrelated UI interactions that would
// otherwise fight over the same modal panel. Everything else should use
// distinct, collision-free keys, conventionally "<FeatureKey>.<action>".
//
// # Thread Safety
//
// The engine calls the registry from the tick goroutine only. The registry
// still guards its map with a mutex so the control API can take a
// Snapshot from an HTTP goroutine.
//
// # Usage
//
//	throttles := throttle.NewRegistry(throttle.WithGenericCooldown(200 * time.Millisecond))
//
//	if throttles.Throttle("AutoConfirm.select", 500*time.Millisecond) {
//	    _ = dispatcher.Select(handle, idx)
//	}
package throttle
