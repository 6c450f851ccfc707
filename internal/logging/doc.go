// Package logging assembles the structured slog loggers used by Platter.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context-aware helpers that tag log lines with job IDs, stages, and
// correlation IDs. NewNop gives tests and optional wiring a logger that cannot
// fail.
package logging
