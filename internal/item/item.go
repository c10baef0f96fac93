// Package item defines the build item variants declared by build files:
// targets, configs, toolchains, and pools. Each variant carries its
// dependency lists as label references; the graph resolver fills in the
// direct pointers once every referenced item has been declared.
package item

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/label"
)

// Kind distinguishes the item variants. It is fixed the first time a label
// is observed and can never change afterwards.
type Kind int

const (
	KindTarget Kind = iota
	KindConfig
	KindToolchain
	KindPool
)

// String returns the lower-case variant name as it appears in build files.
func (k Kind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindConfig:
		return "config"
	case KindToolchain:
		return "toolchain"
	case KindPool:
		return "pool"
	}
	return "unknown"
}

// Ref is a label reference together with the source location where it was
// written, so dependency errors can blame the referencing file.
type Ref struct {
	Label label.Label
	Range hcl.Range
}

// Item is the capability shared by all build item variants.
type Item interface {
	// Label returns the item's unique identifier.
	Label() label.Label
	// Kind returns the variant tag.
	Kind() Kind
	// DefRange returns the source location of the item's declaration.
	DefRange() hcl.Range
	// OnResolved performs variant-specific post-processing. It is invoked
	// exactly once, after all of the item's dependencies are resolved and
	// its direct pointers have been filled in. A non-nil error aborts the
	// whole build.
	OnResolved() error
}

// base carries the fields common to every variant.
type base struct {
	label    label.Label
	defRange hcl.Range
}

func (b *base) Label() label.Label  { return b.label }
func (b *base) DefRange() hcl.Range { return b.defRange }
