// Package host provides the tick framework the engine runs on.
//
// The Framework owns the single tick goroutine. On every tick it first
// runs work posted from other goroutines, then calls each subscribed hook
// in subscription order. Hooks run behind a recover boundary so one faulty
// subscriber cannot stop the others or the loop.
//
// Ticks come from a local ticker (Run) or from pulses published by the
// host adapter (RunPulses, fed by PulseSource).
//
// # Thread Safety
//
// Subscribe, Unsubscribe and Tick must only be called from the tick
// goroutine. Post and Call are safe from any goroutine and are how HTTP
// handlers and other collaborators reach engine state.
package host
