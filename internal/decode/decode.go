// Package decode turns parsed build files into build item declarations.
// It understands just enough of the build description language to exercise
// the graph: target/config/toolchain/pool blocks with dependency-list
// attributes, and import blocks pulling in shared declaration files.
//
// Toolchain-qualified labels such as "//a:a(//tc:x)" are accepted
// syntactically, but this executor only ever declares items under their
// unqualified label, so a qualified reference cannot resolve and is
// reported as a missing dependency.
package decode

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/metabuild/internal/diag"
	"github.com/vk/metabuild/internal/item"
	"github.com/vk/metabuild/internal/label"
)

// fileSchema describes the block types allowed at the top level of a build
// file.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "import", LabelNames: []string{"path"}},
		{Type: "target", LabelNames: []string{"name"}},
		{Type: "config", LabelNames: []string{"name"}},
		{Type: "toolchain", LabelNames: []string{"name"}},
		{Type: "pool", LabelNames: []string{"name"}},
	},
}

// File is the decoded form of one build file.
type File struct {
	// Imports are shared declaration files to load via the blocking
	// protocol before this file's items are declared.
	Imports []Import
	// Items are the build items the file declares, in source order.
	Items []item.Item
}

// Import is one import block.
type Import struct {
	Path  string
	Range hcl.Range
}

// DecodeFile decodes the parsed tree of a build file whose source-absolute
// directory is dir. Relative labels in the file resolve against dir.
func DecodeFile(f *hcl.File, dir string) (*File, error) {
	content, diags := f.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diag.FromDiagnostics(diag.LoadFailure, diags)
	}

	out := &File{}
	for _, block := range content.Blocks {
		switch block.Type {
		case "import":
			out.Imports = append(out.Imports, Import{Path: block.Labels[0], Range: block.DefRange})
		case "target":
			t, err := decodeTarget(block, dir)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, t)
		case "config":
			c, err := decodeConfig(block, dir)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, c)
		case "toolchain":
			tc, err := decodeToolchain(block, dir)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, tc)
		case "pool":
			p, err := decodePool(block, dir)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, p)
		}
	}
	return out, nil
}

func decodeTarget(block *hcl.Block, dir string) (*item.Target, error) {
	t := item.NewTarget(label.New(dir, block.Labels[0]), block.DefRange)

	attrs, err := blockAttributes(block)
	if err != nil {
		return nil, err
	}
	for name, attr := range attrs {
		switch name {
		case "deps":
			if t.DepRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		case "data_deps":
			if t.DataDepRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		case "configs":
			if t.ConfigRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		case "public_configs":
			if t.PublicConfigRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		case "all_dependent_configs":
			if t.AllDependentConfigRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		case "toolchain":
			if t.ToolchainRef, err = labelValue(attr, dir); err != nil {
				return nil, err
			}
		case "pool":
			if t.PoolRef, err = labelValue(attr, dir); err != nil {
				return nil, err
			}
		default:
			return nil, unknownAttribute(block, attr)
		}
	}
	return t, nil
}

func decodeConfig(block *hcl.Block, dir string) (*item.Config, error) {
	c := item.NewConfig(label.New(dir, block.Labels[0]), block.DefRange)

	attrs, err := blockAttributes(block)
	if err != nil {
		return nil, err
	}
	for name, attr := range attrs {
		if name == "configs" {
			if c.SubConfigRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
			continue
		}
		// Every other attribute is an opaque build setting.
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diag.FromDiagnostics(diag.LoadFailure, diags)
		}
		c.Values[name] = val
	}
	return c, nil
}

func decodeToolchain(block *hcl.Block, dir string) (*item.Toolchain, error) {
	tc := item.NewToolchain(label.New(dir, block.Labels[0]), block.DefRange)

	attrs, err := blockAttributes(block)
	if err != nil {
		return nil, err
	}
	for name, attr := range attrs {
		switch name {
		case "deps":
			if tc.DepRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		case "pools":
			if tc.PoolRefs, err = labelListValue(attr, dir); err != nil {
				return nil, err
			}
		default:
			return nil, unknownAttribute(block, attr)
		}
	}
	return tc, nil
}

func decodePool(block *hcl.Block, dir string) (*item.Pool, error) {
	attrs, err := blockAttributes(block)
	if err != nil {
		return nil, err
	}

	var depth int64
	seen := false
	for name, attr := range attrs {
		if name != "depth" {
			return nil, unknownAttribute(block, attr)
		}
		if depth, err = intValue(attr); err != nil {
			return nil, err
		}
		seen = true
	}
	if !seen || depth <= 0 {
		return nil, diag.Newf(diag.LoadFailure, &block.DefRange,
			"pool %q must declare a positive depth", block.Labels[0])
	}
	return item.NewPool(label.New(dir, block.Labels[0]), block.DefRange, depth), nil
}

func blockAttributes(block *hcl.Block) (hcl.Attributes, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diag.FromDiagnostics(diag.LoadFailure, diags)
	}
	return attrs, nil
}

func unknownAttribute(block *hcl.Block, attr *hcl.Attribute) error {
	return diag.Newf(diag.LoadFailure, &attr.NameRange,
		"unknown attribute %q in %s block", attr.Name, block.Type)
}

// labelListValue evaluates attr as a list of label strings, resolving each
// against dir. The attribute's source range is recorded on every reference
// so dependency errors can blame the referencing file.
func labelListValue(attr *hcl.Attribute, dir string) ([]item.Ref, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diag.FromDiagnostics(diag.LoadFailure, diags)
	}
	if val.IsNull() {
		return nil, diag.Newf(diag.LoadFailure, &attr.NameRange,
			"attribute %q must not be null", attr.Name)
	}
	val, convErr := convert.Convert(val, cty.List(cty.String))
	if convErr != nil {
		return nil, diag.Newf(diag.LoadFailure, &attr.NameRange,
			"attribute %q must be a list of label strings: %s", attr.Name, convErr)
	}

	var refs []item.Ref
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.IsNull() {
			return nil, diag.Newf(diag.LoadFailure, &attr.NameRange,
				"attribute %q contains a null label", attr.Name)
		}
		lbl, err := label.Parse(ev.AsString(), dir)
		if err != nil {
			return nil, diag.New(diag.LoadFailure, &attr.NameRange, err.Error(), "")
		}
		refs = append(refs, item.Ref{Label: lbl, Range: attr.Expr.Range()})
	}
	return refs, nil
}

// labelValue evaluates attr as a single label string.
func labelValue(attr *hcl.Attribute, dir string) (*item.Ref, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diag.FromDiagnostics(diag.LoadFailure, diags)
	}
	if val.IsNull() {
		return nil, diag.Newf(diag.LoadFailure, &attr.NameRange,
			"attribute %q must not be null", attr.Name)
	}
	val, convErr := convert.Convert(val, cty.String)
	if convErr != nil {
		return nil, diag.Newf(diag.LoadFailure, &attr.NameRange,
			"attribute %q must be a label string: %s", attr.Name, convErr)
	}
	lbl, err := label.Parse(val.AsString(), dir)
	if err != nil {
		return nil, diag.New(diag.LoadFailure, &attr.NameRange, err.Error(), "")
	}
	return &item.Ref{Label: lbl, Range: attr.Expr.Range()}, nil
}

// intValue evaluates attr as an integer.
func intValue(attr *hcl.Attribute) (int64, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return 0, diag.FromDiagnostics(diag.LoadFailure, diags)
	}
	var n int64
	if err := gocty.FromCtyValue(val, &n); err != nil {
		return 0, diag.Newf(diag.LoadFailure, &attr.NameRange,
			"attribute %q must be an integer: %s", attr.Name, err)
	}
	return n, nil
}
