package item

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/label"
)

// Pool limits how many tasks referencing it may run concurrently. Pools
// have no dependencies of their own.
type Pool struct {
	base

	// Depth is the concurrency limit. Always positive; validated at
	// declaration time.
	Depth int64

	ResolveHook func() error
}

// NewPool creates a pool declared at def.
func NewPool(l label.Label, def hcl.Range, depth int64) *Pool {
	return &Pool{base: base{label: l, defRange: def}, Depth: depth}
}

func (p *Pool) Kind() Kind { return KindPool }

func (p *Pool) OnResolved() error {
	if p.ResolveHook != nil {
		return p.ResolveHook()
	}
	return nil
}
