// Package config loads, normalizes, and validates assetpack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GITHUB_OUTPUT for CI integration. Values here are defaults for the build
// command; explicit CLI flags always win.
package config
