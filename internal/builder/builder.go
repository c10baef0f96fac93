package builder

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/diag"
	"github.com/vk/metabuild/internal/item"
	"github.com/vk/metabuild/internal/label"
)

// LoadRequester is asked to load the build file owning a label the first
// time the label is referenced. Requests for files already loaded or in
// flight are expected to be deduplicated by the requester.
type LoadRequester func(lbl label.Label)

// GeneratePolicy decides, at definition time, whether an item should be
// part of the default build output.
type GeneratePolicy func(it item.Item) bool

// ResolvedObserver is notified when a generated item reaches its final,
// output-ready state.
type ResolvedObserver func(it item.Item)

// Builder is the graph resolver. It is not safe for concurrent use: every
// call must happen on the scheduler's designated goroutine.
type Builder struct {
	requestLoad    LoadRequester
	generatePolicy GeneratePolicy
	onGenerated    ResolvedObserver

	records map[label.Label]*Record
}

// New creates a builder. Any of the hooks may be nil.
func New(requestLoad LoadRequester, policy GeneratePolicy, onGenerated ResolvedObserver) *Builder {
	return &Builder{
		requestLoad:    requestLoad,
		generatePolicy: policy,
		onGenerated:    onGenerated,
		records:        make(map[label.Label]*Record),
	}
}

// ItemDefined declares it, wiring its dependency edges and resolving every
// record the declaration unblocks. The returned error, if non-nil, is fatal
// to the build.
func (b *Builder) ItemDefined(it item.Item) error {
	def := it.DefRange()
	rec, err := b.recordFor(it.Label(), it.Kind(), &def)
	if err != nil {
		return err
	}
	if rec.it != nil {
		prev := rec.it.DefRange()
		return diag.Newf(diag.DuplicateDefinition, &def, "%s is defined more than once", it.Label()).
			WithSub(diag.New(diag.DuplicateDefinition, &prev, "previously defined here", ""))
	}
	rec.it = it

	if err := b.wireDeps(rec, it); err != nil {
		return err
	}

	if rec.shouldGenerate {
		// The flag was set pre-emptively by a dependent before this item
		// existed; re-run propagation onto the freshly wired deps.
		b.setShouldGenerate(rec, true)
	} else if b.generatePolicy != nil && b.generatePolicy(it) {
		b.setShouldGenerate(rec, false)
	}

	if rec.canResolve() {
		return b.resolveRecord(rec)
	}
	return nil
}

// GetItem returns the declared item for lbl, or nil.
func (b *Builder) GetItem(lbl label.Label) item.Item {
	if rec, ok := b.records[lbl]; ok {
		return rec.it
	}
	return nil
}

// GetRecord returns the record for lbl, or nil. For diagnostics and tests.
func (b *Builder) GetRecord(lbl label.Label) *Record {
	return b.records[lbl]
}

// GetAllResolvedItems returns every resolved, generated item in label order.
// This is the finished graph downstream generators consume.
func (b *Builder) GetAllResolvedItems() []item.Item {
	var out []item.Item
	for _, rec := range b.sortedRecordList() {
		if rec.resolved && rec.shouldGenerate {
			out = append(out, rec.it)
		}
	}
	return out
}

// recordFor looks up or lazily creates the record for lbl. A kind mismatch
// with an existing record is a fatal TypeConflict. Newly created records
// trigger a load request for their owning file.
func (b *Builder) recordFor(lbl label.Label, kind item.Kind, ref *hcl.Range) (*Record, error) {
	if rec, ok := b.records[lbl]; ok {
		if rec.kind != kind {
			e := diag.Newf(diag.TypeConflict, ref,
				"%s is referenced as a %s but was previously seen as a %s", lbl, kind, rec.kind)
			if rec.originRange != nil {
				e.WithSub(diag.Newf(diag.TypeConflict, rec.originRange, "first seen as a %s here", rec.kind))
			}
			return nil, e
		}
		return rec, nil
	}

	rec := newRecord(lbl, kind, ref)
	b.records[lbl] = rec
	if b.requestLoad != nil {
		b.requestLoad(lbl)
	}
	return rec, nil
}

// wireDeps adds an edge for every dependency list relevant to the item's
// variant.
func (b *Builder) wireDeps(rec *Record, it item.Item) error {
	switch v := it.(type) {
	case *item.Target:
		if err := b.addDepRefs(rec, v.DepRefs, item.KindTarget); err != nil {
			return err
		}
		if err := b.addDepRefs(rec, v.DataDepRefs, item.KindTarget); err != nil {
			return err
		}
		if err := b.addDepRefs(rec, v.ConfigRefs, item.KindConfig); err != nil {
			return err
		}
		if err := b.addDepRefs(rec, v.PublicConfigRefs, item.KindConfig); err != nil {
			return err
		}
		if err := b.addDepRefs(rec, v.AllDependentConfigRefs, item.KindConfig); err != nil {
			return err
		}
		if v.ToolchainRef != nil {
			if err := b.addDepRef(rec, *v.ToolchainRef, item.KindToolchain); err != nil {
				return err
			}
		}
		if v.PoolRef != nil {
			if err := b.addDepRef(rec, *v.PoolRef, item.KindPool); err != nil {
				return err
			}
		}
	case *item.Config:
		if err := b.addDepRefs(rec, v.SubConfigRefs, item.KindConfig); err != nil {
			return err
		}
	case *item.Toolchain:
		if err := b.addDepRefs(rec, v.DepRefs, item.KindTarget); err != nil {
			return err
		}
		if err := b.addDepRefs(rec, v.PoolRefs, item.KindPool); err != nil {
			return err
		}
	case *item.Pool:
		// Pools have no dependencies.
	default:
		return fmt.Errorf("unknown item variant %T for %s", it, it.Label())
	}
	return nil
}

func (b *Builder) addDepRefs(rec *Record, refs []item.Ref, kind item.Kind) error {
	for _, ref := range refs {
		if err := b.addDepRef(rec, ref, kind); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) addDepRef(rec *Record, ref item.Ref, kind item.Kind) error {
	rng := ref.Range
	dep, err := b.recordFor(ref.Label, kind, &rng)
	if err != nil {
		return err
	}
	rec.addDep(dep)
	return nil
}

// setShouldGenerate marks rec as part of the default build output and
// propagates the flag to every transitive dependency, requesting loads for
// ones that have no item yet. force re-runs propagation even when rec's
// flag is already set, which is needed when the flag was set before rec
// was defined and wired.
func (b *Builder) setShouldGenerate(rec *Record, force bool) {
	if rec.shouldGenerate && !force {
		return
	}
	if !rec.shouldGenerate {
		b.markGenerate(rec)
	}

	queue := []*Record{rec}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if r.it == nil && b.requestLoad != nil {
			b.requestLoad(r.label)
		}
		for _, dep := range r.AllDeps() {
			if dep.shouldGenerate {
				continue
			}
			b.markGenerate(dep)
			queue = append(queue, dep)
		}
	}
}

// markGenerate sets the flag and, when the record has already resolved,
// notifies the observer immediately: records resolved before the flag
// arrives would otherwise appear in the final set without ever having been
// observed. Unresolved records are notified from resolveRecord instead.
func (b *Builder) markGenerate(rec *Record) {
	rec.shouldGenerate = true
	if rec.resolved && b.onGenerated != nil {
		b.onGenerated(rec.it)
	}
}

func (b *Builder) sortedRecordList() []*Record {
	out := make([]*Record, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].label.String() < out[j].label.String()
	})
	return out
}
