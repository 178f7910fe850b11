package config

import (
	"fmt"
	"os"
	"path"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBuild()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir()
	}
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBuild() {
	if c.Build.CompressionLevel == 0 {
		c.Build.CompressionLevel = defaultCompressionLevel
	}
	if c.Build.IconTimeoutSeconds == 0 {
		c.Build.IconTimeoutSeconds = defaultIconTimeoutSeconds
	}
	if c.Build.StaleStagingHours == 0 {
		c.Build.StaleStagingHours = defaultStaleStagingHours
	}

	patterns := make([]string, 0, len(c.Build.ExcludePatterns))
	for _, pattern := range c.Build.ExcludePatterns {
		pattern = strings.TrimSpace(strings.ReplaceAll(pattern, "\\", "/"))
		if pattern == "" {
			continue
		}
		patterns = append(patterns, path.Clean(pattern))
	}
	c.Build.ExcludePatterns = patterns

	c.Build.CIOutputFile = strings.TrimSpace(c.Build.CIOutputFile)
	if c.Build.CIOutputFile == "" {
		if value, ok := os.LookupEnv("GITHUB_OUTPUT"); ok {
			c.Build.CIOutputFile = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}
