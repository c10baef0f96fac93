// Package label defines the identifier type for build items. A label names
// one item in one build file, optionally qualified by the toolchain it is
// built with, e.g. `//base/allocator:dispatcher(//toolchains:clang)`.
package label

// Label is the structured representation of a unique item identifier. It is
// a comparable value type and is used as the key for all graph lookups.
// Immutable once constructed.
type Label struct {
	// Dir is the source-absolute directory of the item, e.g. "//base/allocator".
	// The root directory is "//".
	Dir string
	// Name is the item name within its directory.
	Name string
	// ToolchainDir and ToolchainName identify the toolchain the item is
	// built with. Both are empty for items in the default toolchain and
	// for toolchain labels themselves.
	ToolchainDir  string
	ToolchainName string
}

// New creates a label in the default toolchain.
func New(dir, name string) Label {
	return Label{Dir: dir, Name: name}
}

// HasToolchain returns true if the label carries an explicit toolchain.
func (l Label) HasToolchain() bool {
	return l.ToolchainDir != "" || l.ToolchainName != ""
}

// Toolchain returns the toolchain part of the label as a label of its own.
// The zero Label is returned when no toolchain is set.
func (l Label) Toolchain() Label {
	if !l.HasToolchain() {
		return Label{}
	}
	return Label{Dir: l.ToolchainDir, Name: l.ToolchainName}
}

// WithToolchain returns a copy of the label qualified by the given toolchain.
func (l Label) WithToolchain(tc Label) Label {
	l.ToolchainDir = tc.Dir
	l.ToolchainName = tc.Name
	return l
}

// IsZero reports whether the label is the zero value.
func (l Label) IsZero() bool {
	return l == Label{}
}
