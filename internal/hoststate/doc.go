// Package hoststate is the read side of the host boundary: an address-free
// view of the game client's UI and player state.
//
// The engine never touches host memory. A host-side adapter publishes a
// Snapshot (panels, their text nodes and choice entries, and a small player
// block) and SnapshotReader answers queries against the most recent one.
//
// Every query:
//   - reads the current snapshot fresh; nothing is cached between calls
//   - is side-effect free
//   - converts any fault (missing panel, missing node, malformed data) into
//     the negative or empty result and logs a diagnostic
//
// Readiness gates content: entries and text of a panel that is not ready
// are reported as absent, never as stale values.
//
// # Panels
//
// Panels are addressed by name and a 1-based instance number, matching the
// host's own addressing. A PanelHandle is an opaque {Name, Instance} pair
// that the dispatcher accepts; holding one does not guarantee the panel
// still exists on the next tick.
//
// # Usage
//
//	reader := hoststate.NewSnapshotReader(hoststate.WithLogger(log))
//	source := hoststate.NewSource(mqttClient, reader, log)
//	if err := source.Start(); err != nil {
//	    return err
//	}
//
//	if reader.IsPanelReady(hoststate.PanelSelectString, 1) { ... }
package hoststate
