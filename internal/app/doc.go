// Package app wires the scheduler, loader, builder, and runner together
// into one graph build and owns its lifecycle: kick off the root build
// file, run the designated goroutine's loop until all work is done or the
// first fatal error is latched, drain the worker pool, run the final
// consistency sweep, and hand the resolved graph to its consumer.
package app
