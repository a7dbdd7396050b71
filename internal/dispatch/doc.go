// Package dispatch is the write side of the host boundary: simulated input
// submitted to the game client.
//
// Dispatchers are fire-and-forget. They do not re-check preconditions
// (panel ready, index in range, entry enabled); callers establish those
// through hoststate on the same tick. A nil error means the command was
// handed to the transport, not that the host acted on it. Confirmation, if
// needed, is observed on a later tick.
package dispatch
