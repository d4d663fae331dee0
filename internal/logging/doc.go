// Package logging assembles structured slog loggers and formatting helpers used
// across signframes.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handling can tag log
// lines with correlation IDs and the grammar token being resolved. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
