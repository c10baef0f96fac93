package loader

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metabuild/internal/diag"
	"github.com/vk/metabuild/internal/testutil"
)

func TestLoadSyncParsesOnCallingGoroutine(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"BUILD.hcl": `target "root" {}`,
	})
	s := testutil.QuietScheduler(2)
	defer s.Shutdown()
	l := New(s, root, "")

	file, err := l.LoadSync("//BUILD.hcl")
	require.NoError(t, err)
	require.NotNil(t, file)

	// A second call returns the cached tree.
	again, err := l.LoadSync("//BUILD.hcl")
	require.NoError(t, err)
	assert.Same(t, file, again)
}

func TestLoadAsyncExactlyOnce(t *testing.T) {
	// 100 concurrent requests for one file: one parse, and every callback
	// receives the identical tree.
	root := testutil.WriteTree(t, map[string]string{
		"pkg/BUILD.hcl": `target "lib" {}`,
	})
	s := testutil.QuietScheduler(4)
	defer s.Shutdown()
	l := New(s, root, "")

	const callers = 100
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		trees   = map[*hcl.File]int{}
		failure atomic.Int32
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			err := l.LoadAsync("//pkg/BUILD.hcl", func(f *hcl.File, err error) {
				defer wg.Done()
				if err != nil {
					failure.Add(1)
					return
				}
				mu.Lock()
				trees[f]++
				mu.Unlock()
			})
			if err != nil {
				failure.Add(1)
				wg.Done()
			}
		}()
	}
	wg.Wait()
	s.DrainPool()

	assert.Zero(t, failure.Load())
	require.Len(t, trees, 1, "all callbacks must observe one identical parsed tree")
	for _, n := range trees {
		assert.Equal(t, callers, n)
	}
}

func TestLoadSyncBlocksUntilOtherBlockingCallerFinishes(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"slow/BUILD.hcl": `target "s" {}`,
	})
	s := testutil.QuietScheduler(2)
	defer s.Shutdown()
	l := New(s, root, "")

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]*hcl.File, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			defer wg.Done()
			f, err := l.LoadSync("//slow/BUILD.hcl")
			require.NoError(t, err)
			results[i] = f
		}()
	}
	wg.Wait()

	for i := 1; i < waiters; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestProtocolMismatch(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"a/BUILD.hcl": `target "a" {}`,
		"b/BUILD.hcl": `target "b" {}`,
	})
	s := testutil.QuietScheduler(2)
	defer s.Shutdown()
	l := New(s, root, "")

	t.Run("sync after async", func(t *testing.T) {
		done := make(chan struct{})
		require.NoError(t, l.LoadAsync("//a/BUILD.hcl", func(*hcl.File, error) { close(done) }))
		<-done

		_, err := l.LoadSync("//a/BUILD.hcl")
		require.Error(t, err)
		kind, ok := diag.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, diag.ProtocolMismatch, kind)

		// The cached record is not corrupted for other async callers.
		var got *hcl.File
		require.NoError(t, l.LoadAsync("//a/BUILD.hcl", func(f *hcl.File, err error) {
			require.NoError(t, err)
			got = f
		}))
		assert.NotNil(t, got)
	})

	t.Run("async after sync", func(t *testing.T) {
		_, err := l.LoadSync("//b/BUILD.hcl")
		require.NoError(t, err)

		err = l.LoadAsync("//b/BUILD.hcl", func(*hcl.File, error) {
			t.Error("callback must not run on protocol mismatch")
		})
		require.Error(t, err)
		kind, ok := diag.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, diag.ProtocolMismatch, kind)

		// Blocking callers still get the cached tree.
		f, err := l.LoadSync("//b/BUILD.hcl")
		require.NoError(t, err)
		assert.NotNil(t, f)
	})
}

func TestLoadFailureStillSignalsCompletion(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"bad/BUILD.hcl": `target "unterminated {`,
	})
	s := testutil.QuietScheduler(2)
	defer s.Shutdown()
	l := New(s, root, "")

	got := make(chan error, 1)
	require.NoError(t, l.LoadAsync("//bad/BUILD.hcl", func(f *hcl.File, err error) {
		got <- err
	}))

	select {
	case err := <-got:
		require.Error(t, err)
		kind, ok := diag.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, diag.LoadFailure, kind)
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran for a failed load")
	}

	// Later callers observe the recorded failure rather than hanging.
	err := l.LoadAsync("//bad/BUILD.hcl", func(f *hcl.File, err error) {
		got <- err
	})
	require.NoError(t, err)
	assert.Error(t, <-got)
}

func TestMissingFileIsLoadFailure(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{})
	s := testutil.QuietScheduler(1)
	defer s.Shutdown()
	l := New(s, root, "")

	_, err := l.LoadSync("//nowhere/BUILD.hcl")
	require.Error(t, err)
	kind, ok := diag.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, diag.LoadFailure, kind)
}

func TestSecondaryRootFallback(t *testing.T) {
	primary := testutil.WriteTree(t, map[string]string{
		"a/BUILD.hcl": `target "primary" {}`,
	})
	secondary := testutil.WriteTree(t, map[string]string{
		"a/BUILD.hcl": `target "shadowed" {}`,
		"b/BUILD.hcl": `target "fallback" {}`,
	})
	s := testutil.QuietScheduler(1)
	defer s.Shutdown()
	l := New(s, primary, secondary)

	// Present under the primary root: the primary copy wins.
	f, err := l.LoadSync("//a/BUILD.hcl")
	require.NoError(t, err)
	assert.Contains(t, attrNames(t, f), "primary")

	// Absent under the primary root: falls back to the secondary.
	f, err = l.LoadSync("//b/BUILD.hcl")
	require.NoError(t, err)
	assert.Contains(t, attrNames(t, f), "fallback")
}

// attrNames extracts the target block names from a parsed build file.
func attrNames(t *testing.T, f *hcl.File) []string {
	t.Helper()
	content, diags := f.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "target", LabelNames: []string{"name"}}},
	})
	require.False(t, diags.HasErrors())
	var names []string
	for _, b := range content.Blocks {
		names = append(names, b.Labels[0])
	}
	return names
}
