// Package testutil holds shared fixtures for the graph core's tests:
// temporary source trees, hand-built items with fake source ranges, and a
// quiet scheduler.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/require"

	"github.com/vk/metabuild/internal/item"
	"github.com/vk/metabuild/internal/label"
	"github.com/vk/metabuild/internal/scheduler"
)

// Label parses a label string, failing the test on error.
func Label(t *testing.T, raw string) label.Label {
	t.Helper()
	lbl, err := label.Parse(raw, "//")
	require.NoError(t, err)
	return lbl
}

// Range fabricates a source range inside lbl's build file.
func Range(lbl label.Label, line int) hcl.Range {
	return hcl.Range{
		Filename: lbl.BuildFile(),
		Start:    hcl.Pos{Line: line, Column: 1},
		End:      hcl.Pos{Line: line, Column: 2},
	}
}

// Refs converts label strings into references blaming line 1 of the
// referencing label's build file.
func Refs(t *testing.T, from label.Label, labels ...string) []item.Ref {
	t.Helper()
	refs := make([]item.Ref, len(labels))
	for i, raw := range labels {
		refs[i] = item.Ref{Label: Label(t, raw), Range: Range(from, 1)}
	}
	return refs
}

// Target builds a target item depending on the given target labels.
func Target(t *testing.T, raw string, deps ...string) *item.Target {
	t.Helper()
	lbl := Label(t, raw)
	tgt := item.NewTarget(lbl, Range(lbl, 1))
	tgt.DepRefs = Refs(t, lbl, deps...)
	return tgt
}

// Config builds a config item referencing the given sub-config labels.
func Config(t *testing.T, raw string, subs ...string) *item.Config {
	t.Helper()
	lbl := Label(t, raw)
	cfg := item.NewConfig(lbl, Range(lbl, 1))
	cfg.SubConfigRefs = Refs(t, lbl, subs...)
	return cfg
}

// Toolchain builds a toolchain item.
func Toolchain(t *testing.T, raw string) *item.Toolchain {
	t.Helper()
	lbl := Label(t, raw)
	return item.NewToolchain(lbl, Range(lbl, 1))
}

// Pool builds a pool item with the given depth.
func Pool(t *testing.T, raw string, depth int64) *item.Pool {
	t.Helper()
	lbl := Label(t, raw)
	return item.NewPool(lbl, Range(lbl, 1), depth)
}

// QuietScheduler creates a scheduler whose log output is discarded.
func QuietScheduler(workers int) *scheduler.Scheduler {
	return scheduler.New(slog.New(slog.NewTextHandler(io.Discard, nil)), workers)
}
