// Package builder maintains the dependency graph of build items as build
// files are executed, and resolves each item once all of its dependencies
// are known.
//
// # Declare now, resolve later
//
// Build files load in unpredictable order, so a dependency is routinely
// referenced before it is defined. The builder handles this with
// placeholder records: the first time any edge mentions a label, a Record
// is created with no item attached. When the owning file later executes
// and declares the item, the record is "defined", its dependency edges are
// wired (possibly creating further placeholders and triggering more file
// loads), and the resolution cascade runs for every record whose last
// unresolved dependency just disappeared.
//
// # Single-writer
//
// Every method that mutates the graph executes on the scheduler's
// designated goroutine. The builder holds no locks; the rest of the system
// preserves the invariant by marshaling calls through scheduler.Task.
//
// # Diagnostics
//
// Duplicate definitions and type conflicts are caught at declaration time.
// Missing dependencies and cycles cannot be diagnosed until all loading is
// finished (an undefined label might just not have loaded yet), so
// CheckConsistency runs as a deliberate final sweep.
package builder
