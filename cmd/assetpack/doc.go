// Package main hosts the assetpack CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls on the
// internal packages: build runs the packager pipeline, inspect and extract
// read existing .unitypackage files, staging manages leftover build
// directories, and config scaffolds and checks the TOML configuration.
// Configuration loading and logger setup live in the shared command
// context so subcommands only deal with flags and presentation.
package main
