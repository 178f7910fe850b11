// Package logging assembles structured slog loggers and formatting helpers used
// across assetpack.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so encoders and the build
// orchestrator tag their lines with the same component, build_id and phase
// keys. WarnWithContext is the preferred way to report skipped assets: it
// guarantees every warning carries an event type, a hint and an impact.
//
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
