// Package logging assembles structured slog loggers and formatting helpers used
// across gymtrack.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and
// maintenance jobs tag log lines with request IDs and job names. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
