// Package services defines shared utilities consumed by the reconciliation,
// matching, and alignment jobs and by the catalog clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (not found, invalid input, upstream outage) without string
//     matching.
//   - ValidationError, which names the raw field that made an ingestion fail.
//
// Use these helpers when wiring new job logic so operational behaviour stays
// uniform across commands.
package services
