package diag

import (
	"fmt"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(file string, line int) *hcl.Range {
	return &hcl.Range{
		Filename: file,
		Start:    hcl.Pos{Line: line, Column: 1},
		End:      hcl.Pos{Line: line, Column: 2},
	}
}

func TestErrorRendering(t *testing.T) {
	err := New(DuplicateDefinition, rng("//a/BUILD.hcl", 3), "//a:foo is defined more than once", "").
		WithSub(New(DuplicateDefinition, rng("//a/BUILD.hcl", 9), "previously defined here", ""))

	out := err.Error()
	assert.Contains(t, out, "//a/BUILD.hcl:3:1: duplicate definition: //a:foo is defined more than once")
	assert.Contains(t, out, "//a/BUILD.hcl:9:1: duplicate definition: previously defined here")
}

func TestErrorWithoutLocation(t *testing.T) {
	err := New(MissingDependency, nil, "some dependencies were referenced but never defined", "")
	assert.Equal(t, "missing dependency: some dependencies were referenced but never defined", err.Error())
}

func TestDetailRendering(t *testing.T) {
	err := New(LoadFailure, nil, "Unable to read //a/BUILD.hcl", "file does not exist")
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestFromDiagnostics(t *testing.T) {
	diags := hcl.Diagnostics{
		&hcl.Diagnostic{Severity: hcl.DiagError, Summary: "bad block", Subject: rng("//x/BUILD.hcl", 1)},
		&hcl.Diagnostic{Severity: hcl.DiagWarning, Summary: "ignored warning"},
		&hcl.Diagnostic{Severity: hcl.DiagError, Summary: "another error", Subject: rng("//x/BUILD.hcl", 4)},
	}

	err := FromDiagnostics(LoadFailure, diags)
	require.NotNil(t, err)
	assert.Equal(t, LoadFailure, err.Kind)
	assert.Equal(t, "bad block", err.Summary)
	require.Len(t, err.Sub, 1)
	assert.Equal(t, "another error", err.Sub[0].Summary)
	assert.NotContains(t, err.Error(), "ignored warning")
}

func TestFromDiagnosticsNoErrors(t *testing.T) {
	assert.Nil(t, FromDiagnostics(LoadFailure, nil))
	assert.Nil(t, FromDiagnostics(LoadFailure, hcl.Diagnostics{
		&hcl.Diagnostic{Severity: hcl.DiagWarning, Summary: "only a warning"},
	}))
}

func TestKindOf(t *testing.T) {
	err := New(TypeConflict, nil, "conflict", "")

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, TypeConflict, kind)

	kind, ok = KindOf(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, TypeConflict, kind)

	_, ok = KindOf(fmt.Errorf("plain"))
	assert.False(t, ok)
}
