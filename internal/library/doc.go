// Package library persists the local music collection in SQLite.
//
// A Store owns the database handle; a Tx is one unit of work. Every query
// method is available on both, so code that must stage several writes
// atomically (ingestion, reconciliation of one item, matching) runs against a
// Tx and sees its own uncommitted rows, while read-only callers use the Store
// directly. The schema enforces the natural keys (release source id, artist
// source id, format description text, second-catalog ids) and cascades
// release deletion to tracks and formats.
package library
