// Package taskmanager sequences multi-step interactions with the host as a
// FIFO of predicate-gated steps, advanced one evaluation per tick.
//
// Nothing here blocks. "Wait until the dialog is open, then click" is a
// step whose Condition is re-evaluated on every Tick until it holds, at
// which point its Action runs and the step is popped. A step that does not
// complete before its deadline is discarded.
//
// Rules:
//   - At most one step is in flight; steps run strictly in enqueue order.
//   - A step is dequeued and evaluated on the same tick.
//   - At most one step completes per tick.
//   - Deadlines are wall-clock (Timeout) or counted in evaluations
//     (TimeoutTicks).
//   - On timeout the step is dropped. With TimeoutSilently set the timeout
//     is logged as a warning only; otherwise it is logged as an error and
//     the failure handler is called.
//   - An Action error or a panic is always reported as a failure.
//   - With AbortOnTimeout set (the default) any timeout or failure drops
//     the rest of the queue too, because later steps assume earlier ones
//     succeeded.
//   - An Action returning ErrAbort clears the queue.
//   - Abort clears the pending queue and the in-flight step so nothing
//     stale can run after a feature is re-enabled.
//
// A Manager is owned by exactly one feature and must only be used from the
// tick goroutine.
//
// # Usage
//
//	tm := taskmanager.New(taskmanager.WithOwner("AutoConfirm"))
//	tm.Enqueue(taskmanager.Wait("dialog-open", dialogOpen, 5*time.Second))
//	tm.Enqueue(taskmanager.Until("pick-entry", trySelect, 5*time.Second))
//
//	// every tick:
//	tm.Tick()
package taskmanager
