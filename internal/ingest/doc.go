// Package ingest maps a canonical marketplace release into normalized library
// rows.
//
// Ingest stages the whole release graph (release, credited artists, formats
// with their descriptions, and playable tracks) inside the caller's unit of
// work. Shared artists and descriptions go through the resolver so they are
// never duplicated. A release whose source id already exists is left untouched
// and Ingest returns nil.
package ingest
