// Package logging assembles the structured slog loggers used by the exec
// daemon and its control commands.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standardized field keys, and a no-op logger for tests and wiring code that
// cannot fail. Status lines meant for operators are written to stdout by the
// daemon itself; log records default to stderr so the two never interleave.
package logging
