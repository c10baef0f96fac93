package builder

import (
	"fmt"
	"strings"

	"github.com/vk/metabuild/internal/diag"
)

// CheckConsistency is the final sweep over the graph, run once all loading
// work is known to be finished. Any record flagged for generation that
// never resolved is a defect: either one of its dependencies was never
// defined at all, or the defects form a cycle. Records are examined in
// lexicographic label order so the reported diagnosis is deterministic.
func (b *Builder) CheckConsistency() error {
	var bad []*Record
	for _, rec := range b.sortedRecordList() {
		if rec.shouldGenerate && !rec.resolved {
			bad = append(bad, rec)
		}
	}
	if len(bad) == 0 {
		return nil
	}

	if err := b.checkMissingDeps(bad); err != nil {
		return err
	}
	if err := b.checkCycles(bad); err != nil {
		return err
	}

	// Should not occur in a correct system; exists as a backstop so a bug
	// surfaces the stuck records verbatim instead of an empty success.
	e := diag.New(diag.CircularDependency, nil,
		"internal inconsistency: records stuck unresolved with no missing dependency or cycle found", "")
	for _, rec := range bad {
		e.WithSub(diag.Newf(diag.CircularDependency, rec.originRange,
			"%s (defined=%v, unresolved deps=%d)", rec.label, rec.Defined(), len(rec.unresolvedDeps)))
	}
	return e
}

// checkMissingDeps reports every edge from a defective record to a
// dependency that has no item at all, a genuinely undefined label.
func (b *Builder) checkMissingDeps(bad []*Record) error {
	var subs []*diag.Error
	for _, rec := range bad {
		for _, dep := range rec.AllDeps() {
			if dep.it == nil {
				subs = append(subs, diag.Newf(diag.MissingDependency, dep.originRange,
					"%s -> %s", rec.label, dep.label))
			}
		}
	}
	if len(subs) == 0 {
		return nil
	}
	return diag.New(diag.MissingDependency, nil,
		"some dependencies were referenced but never defined", "").WithSub(subs...)
}

// checkCycles runs a depth-first search over the unresolved edges of the
// defective records. The search starts from the lexicographically smallest
// defective label, so the reported cycle is stable across runs regardless
// of map iteration order.
func (b *Builder) checkCycles(bad []*Record) error {
	visited := make(map[*Record]bool)
	for _, start := range bad {
		if cycle := findCycle(start, visited); cycle != nil {
			var sb strings.Builder
			for i, rec := range cycle {
				if i > 0 {
					sb.WriteString(" -> ")
				}
				sb.WriteString(rec.label.String())
			}
			e := diag.New(diag.CircularDependency, cycle[0].originRange,
				"dependency cycle: "+sb.String(), "")
			for _, rec := range cycle[:len(cycle)-1] {
				if rec.it != nil {
					def := rec.it.DefRange()
					e.WithSub(diag.New(diag.CircularDependency, &def,
						fmt.Sprintf("%s is defined here", rec.label), ""))
				}
			}
			return e
		}
	}
	return nil
}

// findCycle searches depth-first from start, tracking the current path.
// When a record on the path is re-encountered, the cycle is the suffix of
// the path from that record's first occurrence back to itself, returned
// with the repeated record at both ends. Dependencies are walked in label
// order for determinism.
func findCycle(start *Record, visited map[*Record]bool) []*Record {
	var path []*Record
	onPath := make(map[*Record]int)

	var visit func(r *Record) []*Record
	visit = func(r *Record) []*Record {
		if idx, ok := onPath[r]; ok {
			cycle := append([]*Record{}, path[idx:]...)
			return append(cycle, r)
		}
		if visited[r] {
			return nil
		}
		visited[r] = true
		onPath[r] = len(path)
		path = append(path, r)

		for _, dep := range r.UnresolvedDeps() {
			if c := visit(dep); c != nil {
				return c
			}
		}

		delete(onPath, r)
		path = path[:len(path)-1]
		return nil
	}
	return visit(start)
}
