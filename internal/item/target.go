package item

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/label"
)

// Target is a buildable unit. Its dependency surface is the widest of the
// variants: linked deps, data deps, three flavors of config references, an
// owning toolchain, and an optional execution pool.
type Target struct {
	base

	// Label references, recorded at declaration time.
	DepRefs                []Ref
	DataDepRefs            []Ref
	ConfigRefs             []Ref
	PublicConfigRefs       []Ref
	AllDependentConfigRefs []Ref
	ToolchainRef           *Ref
	PoolRef                *Ref

	// Direct pointers, filled in by the resolver once every referenced
	// item has been declared and resolved.
	Deps                []*Target
	DataDeps            []*Target
	Configs             []*Config
	PublicConfigs       []*Config
	AllDependentConfigs []*Config
	Toolchain           *Toolchain
	Pool                *Pool

	// ResolveHook, when set, runs at the end of OnResolved and its error
	// becomes the finalization result.
	ResolveHook func() error
}

// NewTarget creates a target declared at def.
func NewTarget(l label.Label, def hcl.Range) *Target {
	return &Target{base: base{label: l, defRange: def}}
}

func (t *Target) Kind() Kind { return KindTarget }

// OnResolved inherits configs exposed by direct dependencies: each dep's
// public configs apply to this target, and all-dependent configs both apply
// here and keep propagating up through this target's own dependents.
func (t *Target) OnResolved() error {
	for _, dep := range t.Deps {
		t.Configs = append(t.Configs, dep.PublicConfigs...)
		t.Configs = append(t.Configs, dep.AllDependentConfigs...)
		t.AllDependentConfigs = append(t.AllDependentConfigs, dep.AllDependentConfigs...)
	}
	if t.ResolveHook != nil {
		return t.ResolveHook()
	}
	return nil
}
