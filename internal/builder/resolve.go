package builder

import (
	"github.com/vk/metabuild/internal/diag"
	"github.com/vk/metabuild/internal/item"
)

// resolveRecord resolves rec and cascades to every waiter whose last
// unresolved dependency just disappeared. The cascade runs on an explicit
// worklist rather than recursing, so call-stack depth stays flat on
// pathologically deep graphs.
func (b *Builder) resolveRecord(rec *Record) error {
	queue := []*Record{rec}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if r.resolved || !r.canResolve() {
			continue
		}

		b.fillResolved(r)
		r.resolved = true

		if err := r.it.OnResolved(); err != nil {
			def := r.it.DefRange()
			return diag.Newf(diag.FinalizationFailure, &def, "failed to finalize %s", r.label).
				WithSub(diag.New(diag.FinalizationFailure, nil, err.Error(), ""))
		}
		if r.shouldGenerate && b.onGenerated != nil {
			b.onGenerated(r.it)
		}

		for _, waiter := range sortedRecords(r.waiting) {
			delete(waiter.unresolvedDeps, r)
			if waiter.canResolve() {
				queue = append(queue, waiter)
			}
		}
		r.waiting = make(map[*Record]struct{})
	}
	return nil
}

// fillResolved converts rec's label references into direct pointers. Every
// referenced record is known to carry an item of the checked kind by the
// time this runs, so the assertions cannot fail.
func (b *Builder) fillResolved(rec *Record) {
	switch v := rec.it.(type) {
	case *item.Target:
		v.Deps = b.targetsOf(v.DepRefs)
		v.DataDeps = b.targetsOf(v.DataDepRefs)
		v.Configs = b.configsOf(v.ConfigRefs)
		v.PublicConfigs = b.configsOf(v.PublicConfigRefs)
		v.AllDependentConfigs = b.configsOf(v.AllDependentConfigRefs)
		if v.ToolchainRef != nil {
			v.Toolchain = b.records[v.ToolchainRef.Label].it.(*item.Toolchain)
		}
		if v.PoolRef != nil {
			v.Pool = b.records[v.PoolRef.Label].it.(*item.Pool)
		}
	case *item.Config:
		v.SubConfigs = b.configsOf(v.SubConfigRefs)
	case *item.Toolchain:
		v.Deps = b.targetsOf(v.DepRefs)
		v.Pools = b.poolsOf(v.PoolRefs)
	case *item.Pool:
	}
}

func (b *Builder) targetsOf(refs []item.Ref) []*item.Target {
	if len(refs) == 0 {
		return nil
	}
	out := make([]*item.Target, len(refs))
	for i, ref := range refs {
		out[i] = b.records[ref.Label].it.(*item.Target)
	}
	return out
}

func (b *Builder) configsOf(refs []item.Ref) []*item.Config {
	if len(refs) == 0 {
		return nil
	}
	out := make([]*item.Config, len(refs))
	for i, ref := range refs {
		out[i] = b.records[ref.Label].it.(*item.Config)
	}
	return out
}

func (b *Builder) poolsOf(refs []item.Ref) []*item.Pool {
	if len(refs) == 0 {
		return nil
	}
	out := make([]*item.Pool, len(refs))
	for i, ref := range refs {
		out[i] = b.records[ref.Label].it.(*item.Pool)
	}
	return out
}
