// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ReadSourceFile reads the source-absolute file name (e.g. "//base/BUILD.hcl")
// from under root. When the primary copy does not exist and secondaryRoot is
// non-empty, the read falls back to the same path under secondaryRoot.
func ReadSourceFile(root, secondaryRoot, name string) ([]byte, error) {
	rel, err := sourceRelative(name)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil && secondaryRoot != "" && errors.Is(err, fs.ErrNotExist) {
		src, err = os.ReadFile(filepath.Join(secondaryRoot, rel))
	}
	return src, err
}

// sourceRelative converts a source-absolute path to a filesystem-relative
// one, rejecting anything that could escape the source root.
func sourceRelative(name string) (string, error) {
	rel, ok := strings.CutPrefix(name, "//")
	if !ok || rel == "" {
		return "", fmt.Errorf("not a source-absolute path: %q", name)
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf("path %q escapes the source root", name)
		}
	}
	return filepath.FromSlash(rel), nil
}
