package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		currentDir string
		want       Label
	}{
		{
			name: "absolute with name",
			raw:  "//base/allocator:dispatcher",
			want: Label{Dir: "//base/allocator", Name: "dispatcher"},
		},
		{
			name: "absolute shorthand",
			raw:  "//base/allocator",
			want: Label{Dir: "//base/allocator", Name: "allocator"},
		},
		{
			name: "top level shorthand",
			raw:  "//base",
			want: Label{Dir: "//base", Name: "base"},
		},
		{
			name:       "relative",
			raw:        ":helper",
			currentDir: "//tools",
			want:       Label{Dir: "//tools", Name: "helper"},
		},
		{
			name: "trailing slash is canonicalized",
			raw:  "//base/:x",
			want: Label{Dir: "//base", Name: "x"},
		},
		{
			name: "with toolchain",
			raw:  "//base:lib(//toolchains:clang)",
			want: Label{Dir: "//base", Name: "lib", ToolchainDir: "//toolchains", ToolchainName: "clang"},
		},
		{
			name:       "relative with toolchain",
			raw:        ":lib(//toolchains:gcc)",
			currentDir: "//foo",
			want:       Label{Dir: "//foo", Name: "lib", ToolchainDir: "//toolchains", ToolchainName: "gcc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, tt.currentDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no anchor", "foo/bar:baz"},
		{"relative without dir", ":orphan"},
		{"empty name", "//base:"},
		{"slash in name", "//base:a/b"},
		{"unterminated toolchain", "//a:b(//tc:x"},
		{"nested toolchain", "//a:b(//tc:x(//tc:y))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, "")
			assert.Error(t, err)
		})
	}
}

func TestString(t *testing.T) {
	l, err := Parse("//base:lib(//toolchains:clang)", "")
	require.NoError(t, err)
	assert.Equal(t, "//base:lib(//toolchains:clang)", l.String())

	plain, err := Parse("//base:lib", "")
	require.NoError(t, err)
	assert.Equal(t, "//base:lib", plain.String())
}

func TestBuildFile(t *testing.T) {
	l := New("//base/allocator", "x")
	assert.Equal(t, "//base/allocator/BUILD.hcl", l.BuildFile())

	root := New("//", "x")
	assert.Equal(t, "//BUILD.hcl", root.BuildFile())
}

func TestSourceDir(t *testing.T) {
	assert.Equal(t, "//base", SourceDir("//base/BUILD.hcl"))
	assert.Equal(t, "//", SourceDir("//BUILD.hcl"))
	assert.Equal(t, "//a/b", SourceDir("//a/b/defs.hcl"))
}

func TestToolchainAccessors(t *testing.T) {
	l, err := Parse("//base:lib(//toolchains:clang)", "")
	require.NoError(t, err)
	require.True(t, l.HasToolchain())
	assert.Equal(t, Label{Dir: "//toolchains", Name: "clang"}, l.Toolchain())

	plain := New("//base", "lib")
	assert.False(t, plain.HasToolchain())
	assert.True(t, plain.Toolchain().IsZero())
}
