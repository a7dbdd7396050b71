// Package feature implements the lifecycle shared by every automation
// routine and the registry that owns them.
//
// A feature is an independently toggleable routine:
//
//	Uninitialized --Setup--> Disabled <--Enable/Disable--> Enabled --Dispose--> Disposed
//
// Concrete features embed *Base, which provides the lifecycle, an owned
// task manager, identity-change notification, settings persistence, user
// messages and the UI helpers (TrySelectSpecificEntry and friends).
//
// # Per-tick hook
//
// Enable subscribes the feature to the host tick. Each tick the hook:
//
//  1. Reads the current job. When it is known and differs from the last
//     observed job, it is stored and every job listener is called.
//  2. Runs the feature's own tick logic behind a recover boundary. A panic
//     is recorded as the feature's fault text, logged and published, and
//     the feature stays subscribed.
//  3. Advances the task manager by one evaluation.
//
// # Thread Safety
//
// Features and the Registry are owned by the tick goroutine. Other
// goroutines reach them through host.Framework.Call.
package feature
