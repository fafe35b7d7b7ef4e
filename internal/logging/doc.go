// Package logging assembles structured slog loggers and formatting helpers used
// across filmatlas.
//
// It owns the console and JSON handlers, the tee that mirrors console output
// into the log file, and context-aware helpers that tag log lines with run and
// correlation IDs. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
