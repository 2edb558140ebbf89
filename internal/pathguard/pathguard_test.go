package pathguard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()
	g := New(root)

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "plain file", raw: "doc.pdf", expected: filepath.Join(root, "doc.pdf")},
		{name: "nested file", raw: "reports/2025/q3.pdf", expected: filepath.Join(root, "reports", "2025", "q3.pdf")},
		{name: "empty string is the root itself", raw: "", expected: root},
		{name: "dot is the root itself", raw: ".", expected: root},
		{name: "redundant dot segments", raw: "./a/./b.pdf", expected: filepath.Join(root, "a", "b.pdf")},
		{name: "trailing separator", raw: "a/b/", expected: filepath.Join(root, "a", "b")},
		{name: "internal dotdot that stays inside", raw: "a/../b.pdf", expected: filepath.Join(root, "b.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Resolve(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveRejectsAbsoluteInput(t *testing.T) {
	g := New(t.TempDir())

	for _, raw := range []string{"/etc/passwd", "/x", `C:\x`, `c:/windows`, `\\server\share`, `\x`} {
		t.Run(raw, func(t *testing.T) {
			_, err := g.Resolve(raw)
			var invalid *InvalidInputError
			require.Error(t, err)
			assert.True(t, errors.As(err, &invalid), "expected InvalidInputError, got %T: %v", err, err)
		})
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	g := New(root)

	tests := []string{
		"..",
		"../",
		"../outside.pdf",
		"a/../../outside.pdf",
		"../../../../../../../../../../etc/passwd", // climbs far past the root depth
		strings.Repeat("../", 64) + "x",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := g.Resolve(raw)
			var denied *AccessDeniedError
			require.Error(t, err)
			require.True(t, errors.As(err, &denied), "expected AccessDeniedError, got %T: %v", err, err)
			assert.Contains(t, err.Error(), raw)
			assert.Contains(t, err.Error(), root, "denial should enumerate the configured roots")
		})
	}
}

func TestResolveRejectsPrefixSibling(t *testing.T) {
	// A sibling directory whose name starts with the root's name must
	// not be mistaken for a descendant.
	base := t.TempDir()
	root := filepath.Join(base, "data")
	sibling := filepath.Join(base, "data-evil")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(sibling, 0o755))

	g := New(root)
	_, err := g.Resolve("../data-evil/secret.pdf")
	var denied *AccessDeniedError
	require.Error(t, err)
	assert.True(t, errors.As(err, &denied))
}

func TestResolveRootOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	g := New(first, second)

	// Any path that joins cleanly is admitted by the first root.
	got, err := g.Resolve("shared.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "shared.pdf"), got)

	// Empty input resolves to the first root, unchanged.
	got, err = g.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestResolveNeverEscapes(t *testing.T) {
	root := t.TempDir()
	g := New(root)

	inputs := []string{
		"a", "a/b", "a/../b", "a/b/../../c", "..", "...", "..a", "a..",
		"./.././a", "a/./././b", "x/../../x", "",
	}
	for _, raw := range inputs {
		got, err := g.Resolve(raw)
		if err != nil {
			continue
		}
		ok := got == root || strings.HasPrefix(got, root+string(filepath.Separator))
		assert.True(t, ok, "resolve(%q) escaped the root: %q", raw, got)
	}
}

func TestUnconfiguredGuardTracksWorkingDirectory(t *testing.T) {
	g := New()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	got, err := g.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, cwd, got)
}

func TestConfigureDropsBlankEntriesAndNormalises(t *testing.T) {
	root := t.TempDir()
	g := New("", "  ", root)

	roots := g.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, root, roots[0])
	assert.True(t, filepath.IsAbs(roots[0]))
}

func TestConcurrentResolve(t *testing.T) {
	root := t.TempDir()
	g := New(root)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if _, err := g.Resolve("a/b.pdf"); err != nil {
					t.Errorf("unexpected resolve failure: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
