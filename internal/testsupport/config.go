package testsupport

import (
	"path/filepath"
	"testing"

	"clipcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.ClipsDir = filepath.Join(base, "clips")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Source.FolderID = "test-folder"
	cfg.Destination.AccountID = "test-account"
	cfg.Destination.AccessToken = "test-token"
	cfg.Retry.DelaySeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithPolicy overrides the selector policy on the test config.
func WithPolicy(policy string) ConfigOption {
	return func(c *config.Config) {
		c.Selector.Policy = policy
	}
}

// WithWindowSeconds enables random-window extraction on the test config.
func WithWindowSeconds(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Transform.WindowSeconds = seconds
	}
}
