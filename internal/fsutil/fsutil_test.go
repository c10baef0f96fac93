package fsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metabuild/internal/testutil"
)

func TestReadSourceFile(t *testing.T) {
	primary := testutil.WriteTree(t, map[string]string{
		"a/BUILD.hcl": "primary",
	})
	secondary := testutil.WriteTree(t, map[string]string{
		"a/BUILD.hcl": "shadowed",
		"b/BUILD.hcl": "fallback",
	})

	src, err := ReadSourceFile(primary, secondary, "//a/BUILD.hcl")
	require.NoError(t, err)
	assert.Equal(t, "primary", string(src))

	src, err = ReadSourceFile(primary, secondary, "//b/BUILD.hcl")
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(src))

	_, err = ReadSourceFile(primary, secondary, "//c/BUILD.hcl")
	assert.Error(t, err)

	_, err = ReadSourceFile(primary, "", "//b/BUILD.hcl")
	assert.Error(t, err, "no fallback without a secondary root")
}

func TestReadSourceFileRejectsBadPaths(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"x/BUILD.hcl": "x"})

	_, err := ReadSourceFile(root, "", "x/BUILD.hcl")
	assert.Error(t, err, "relative paths are rejected")

	_, err = ReadSourceFile(root, "", "//../escape.hcl")
	assert.Error(t, err)

	_, err = ReadSourceFile(root, "", "//")
	assert.Error(t, err)
}
