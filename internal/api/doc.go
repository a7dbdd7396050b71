// Package api implements the control API and event WebSocket for TickPilot.
//
// This package provides:
//   - REST endpoints to list features, switch them on and off, and edit
//     their settings
//   - A read-only view of the throttle registry
//   - Health and Prometheus metrics endpoints
//   - A WebSocket hub relaying feature events and chat notifications
//   - Bearer-token authentication with per-route permissions
//
// # Threading
//
// Features and the feature registry belong to the tick goroutine. Every
// handler that touches them hands the work to the engine with Call and
// waits for the result, so HTTP goroutines never race the tick loop.
//
// # Security
//
// When security.jwt.secret is set, every route except health and metrics
// requires a bearer token minted by `tickpilot token`. WebSocket clients
// exchange their token for a single-use ticket first so the token never
// appears in a URL. With no secret configured the API is open and should
// only listen on loopback.
package api
