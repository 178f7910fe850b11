package config

import (
	"errors"
	"fmt"
	"path"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBuild(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBuild() error {
	if c.Build.CompressionLevel < 1 || c.Build.CompressionLevel > 9 {
		return errors.New("build.compression_level must be between 1 and 9")
	}
	if err := ensurePositiveMap(map[string]int{
		"build.icon_timeout_seconds": c.Build.IconTimeoutSeconds,
		"build.stale_staging_hours":  c.Build.StaleStagingHours,
	}); err != nil {
		return err
	}
	for _, pattern := range c.Build.ExcludePatterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("build.exclude_patterns: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
