// Package jobs records sync, match, and align runs and keeps two runs of the
// same kind from overlapping on the same target.
//
// Runner takes a per-(kind, target) file lock, writes a job row that moves
// pending -> running -> succeeded|failed, and hands the work function a Handle
// for persisting progress. Failures are classified with services.FailureKind
// so the CLI can show why a job stopped.
package jobs
