package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Roots)
}

func TestLoadParsesRoots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roots:\n  - /srv/docs\n  - /srv/archive\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/docs", "/srv/archive"}, cfg.Roots)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roots: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEffectiveRootsPrecedence(t *testing.T) {
	cfg := &Config{Roots: []string{"/from/file"}}

	assert.Equal(t, []string{"/from/file"}, EffectiveRoots(nil, cfg))
	assert.Equal(t, []string{"/from/flag"}, EffectiveRoots([]string{"/from/flag"}, cfg))
	assert.Nil(t, EffectiveRoots(nil, nil))
}

// PDF_ROOTS reaches EffectiveRoots only through the --root flag's env
// sourcing, where urfave/cli comma-splits it. This layer must not read
// the variable itself: a second parse with a different separator would
// silently produce bogus roots.
func TestEffectiveRootsIgnoresEnvDirectly(t *testing.T) {
	t.Setenv(RootsEnvVar, "/a,/b")

	cfg := &Config{Roots: []string{"/from/file"}}
	assert.Equal(t, []string{"/from/file"}, EffectiveRoots(nil, cfg))
	assert.Nil(t, EffectiveRoots(nil, &Config{}))
}
