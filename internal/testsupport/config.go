package testsupport

import (
	"path/filepath"
	"testing"

	"class360/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMaxConcurrentJobs overrides the worker concurrency on the test config.
func WithMaxConcurrentJobs(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxConcurrentJobs = n
	}
}

// WithSubtitleLanguages overrides the default subtitle language list.
func WithSubtitleLanguages(langs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.SubtitleLanguages = langs
	}
}
