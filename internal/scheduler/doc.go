// Package scheduler tracks outstanding work across the whole graph build
// and arbitrates fatal errors.
//
// # Why Scheduler Exists
//
// Build files are loaded and parsed concurrently on a worker pool, while
// every graph mutation must happen on one designated goroutine. Something
// has to know when both sides have gone quiet (no queued tasks, no
// in-flight parses) so the run loop can stop, and something has to pick
// exactly one root cause when several goroutines fail at once. That is the
// scheduler.
//
// # Responsibilities
//
//   - **Marshaling:** Task posts a closure to the designated goroutine;
//     Run executes them in order on the caller's goroutine.
//   - **Completion:** BeginWork/EndWork and SchedulePoolWork maintain a
//     global outstanding-work counter; when it hits zero the run loop is
//     asked to stop.
//   - **Fault latching:** Fail is first-error-wins; later errors are
//     dropped so one deterministic root cause reaches the user.
//   - **Pool draining:** DrainPool blocks until no worker is busy, so
//     teardown never races an in-flight parse.
//
// Each build owns its own Scheduler instance; there is no process-global
// state, which lets tests run several builds in parallel.
package scheduler
