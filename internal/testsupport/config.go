package testsupport

import (
	"path/filepath"
	"testing"

	"assetpack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Build.CIOutputFile = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCIOutputFile points CI outputs at a file under the test's base dir.
func WithCIOutputFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.CIOutputFile = filepath.Join(b.baseDir, name)
	}
}

// WithExcludePatterns replaces the asset package exclude patterns.
func WithExcludePatterns(patterns ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.ExcludePatterns = patterns
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
