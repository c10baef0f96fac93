package builder

import (
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/item"
	"github.com/vk/metabuild/internal/label"
)

// Record is one vertex of the dependency graph. Exactly one Record exists
// per distinct label ever referenced; it is created lazily, possibly before
// the referenced file has even been loaded, and lives for the whole run.
type Record struct {
	label label.Label
	// kind is fixed at first observation. Seeing the same label again with
	// a different kind is a fatal TypeConflict.
	kind item.Kind
	// it is nil until the owning file executes and declares the item.
	it item.Item

	// originRange is where the label was first referenced, for blame.
	originRange *hcl.Range

	resolved       bool
	shouldGenerate bool

	// unresolvedDeps shrinks as dependencies resolve; it never grows once
	// this record has been defined and wired.
	unresolvedDeps map[*Record]struct{}
	// allDeps holds every dependency, resolved or not.
	allDeps map[*Record]struct{}
	// waiting holds the records blocked on this one resolving.
	waiting map[*Record]struct{}
}

func newRecord(l label.Label, kind item.Kind, origin *hcl.Range) *Record {
	return &Record{
		label:          l,
		kind:           kind,
		originRange:    origin,
		unresolvedDeps: make(map[*Record]struct{}),
		allDeps:        make(map[*Record]struct{}),
		waiting:        make(map[*Record]struct{}),
	}
}

// Label returns the record's label.
func (r *Record) Label() label.Label { return r.label }

// Kind returns the item kind fixed at first observation.
func (r *Record) Kind() item.Kind { return r.kind }

// Item returns the declared item, or nil while the record is a placeholder.
func (r *Record) Item() item.Item { return r.it }

// Defined reports whether the owning file has declared the item.
func (r *Record) Defined() bool { return r.it != nil }

// Resolved reports whether the item's finalization hook has run.
func (r *Record) Resolved() bool { return r.resolved }

// ShouldGenerate reports whether the record is part of the default build
// output.
func (r *Record) ShouldGenerate() bool { return r.shouldGenerate }

// OriginRange returns where the label was first referenced, or nil.
func (r *Record) OriginRange() *hcl.Range { return r.originRange }

// UnresolvedDeps returns the not-yet-resolved dependencies, sorted by label.
func (r *Record) UnresolvedDeps() []*Record { return sortedRecords(r.unresolvedDeps) }

// AllDeps returns every dependency, sorted by label.
func (r *Record) AllDeps() []*Record { return sortedRecords(r.allDeps) }

// canResolve reports whether the record has an item and no unresolved
// dependencies left.
func (r *Record) canResolve() bool {
	return r.it != nil && len(r.unresolvedDeps) == 0
}

// addDep wires a bidirectional edge: r depends on dep, and dep records r
// as a waiter unless it has already resolved.
func (r *Record) addDep(dep *Record) {
	r.allDeps[dep] = struct{}{}
	if !dep.resolved {
		r.unresolvedDeps[dep] = struct{}{}
		dep.waiting[r] = struct{}{}
	}
}

// sortedRecords flattens a record set in lexicographic label order, which
// keeps every diagnostic and iteration deterministic.
func sortedRecords(set map[*Record]struct{}) []*Record {
	out := make([]*Record, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].label.String() < out[j].label.String()
	})
	return out
}
