// Package logging assembles the slog loggers used by a4print.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the batch item index, pipeline
// step, and correlation ID carried by services context values. NewNop
// returns a discarding logger for tests and optional wiring.
package logging
