// Package logging assembles structured slog loggers and formatting helpers used
// across auprobe components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so probing code can automatically
// tag log lines with session IDs, source URLs, and protocol names. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Logs default to stderr because stdout carries probe results.
package logging
