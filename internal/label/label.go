package label

import (
	"fmt"
	"strings"
)

// BuildFileName is the well-known name of the build file in each directory.
const BuildFileName = "BUILD.hcl"

// String serializes the Label into its canonical string representation.
func (l Label) String() string {
	var sb strings.Builder
	sb.WriteString(l.Dir)
	sb.WriteByte(':')
	sb.WriteString(l.Name)
	if l.HasToolchain() {
		fmt.Fprintf(&sb, "(%s:%s)", l.ToolchainDir, l.ToolchainName)
	}
	return sb.String()
}

// BuildFile returns the source-absolute path of the build file that owns
// this label, e.g. "//base/allocator/BUILD.hcl".
func (l Label) BuildFile() string {
	if l.Dir == "//" {
		return "//" + BuildFileName
	}
	return l.Dir + "/" + BuildFileName
}

// SourceDir returns the source-absolute directory containing the given
// source-absolute file path, e.g. "//base" for "//base/BUILD.hcl".
func SourceDir(file string) string {
	i := strings.LastIndexByte(file, '/')
	if i <= 1 {
		return "//"
	}
	return file[:i]
}
