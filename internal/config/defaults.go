package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigPath         = "~/.config/assetpack/config.toml"
	projectConfigName         = "assetpack.toml"
	defaultCompressionLevel   = 9
	defaultIconTimeoutSeconds = 30
	defaultStaleStagingHours  = 24
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// defaultExcludePatterns are slash-separated globs relative to the staged
// project root that never enter an asset package.
var defaultExcludePatterns = []string{"Library/**"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir(),
		},
		Build: Build{
			CompressionLevel:   defaultCompressionLevel,
			IconTimeoutSeconds: defaultIconTimeoutSeconds,
			StaleStagingHours:  defaultStaleStagingHours,
			ExcludePatterns:    append([]string(nil), defaultExcludePatterns...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultStagingDir() string {
	return filepath.Join(os.TempDir(), "assetpack", "staging")
}
