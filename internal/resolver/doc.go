// Package resolver implements get-or-create deduplication for entities that
// are shared across releases and identified by a natural key.
//
// Resolution always runs inside a library.Tx, so a second call for the same
// key in the same unit of work finds the row staged by the first call.
package resolver
