// Package config loads the optional server configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RootsEnvVar lists allowed root directories, comma-separated. It is
// consumed through the --root flag's env sourcing, so it carries flag
// precedence: explicit --root flags override it, and both override the
// config file.
const RootsEnvVar = "PDF_ROOTS"

// Config is the on-disk server configuration.
type Config struct {
	// Roots are the directories local PDF paths are confined to. Empty
	// means the process working directory.
	Roots []string `yaml:"roots"`
}

// DefaultPath returns ~/.mcp-pdf-reader/config.yaml, or "" when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mcp-pdf-reader", "config.yaml")
}

// Load reads the config file at path. A missing file is not an error:
// it yields the zero config, so the server runs unconfigured.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// EffectiveRoots merges root configuration by precedence: flag values
// (which already include PDF_ROOTS via the flag's env sourcing), then
// the config file.
func EffectiveRoots(flagRoots []string, cfg *Config) []string {
	if len(flagRoots) > 0 {
		return flagRoots
	}
	if cfg != nil {
		return cfg.Roots
	}
	return nil
}
