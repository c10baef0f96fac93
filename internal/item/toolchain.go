package item

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/label"
)

// Toolchain describes an alternate way of building targets. It may depend
// on setup targets and on pools throttling its tools.
type Toolchain struct {
	base

	DepRefs  []Ref
	PoolRefs []Ref

	Deps  []*Target
	Pools []*Pool

	ResolveHook func() error
}

// NewToolchain creates a toolchain declared at def.
func NewToolchain(l label.Label, def hcl.Range) *Toolchain {
	return &Toolchain{base: base{label: l, defRange: def}}
}

func (t *Toolchain) Kind() Kind { return KindToolchain }

func (t *Toolchain) OnResolved() error {
	if t.ResolveHook != nil {
		return t.ResolveHook()
	}
	return nil
}
