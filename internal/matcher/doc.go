// Package matcher links releases to the second metadata catalog.
//
// FindMatch tries a URL cross-reference first and falls back to an attribute
// search filtered by score. Match persists the chosen release and its tracks
// through the entity resolver, records the cross-reference with its
// confidence code, and runs track alignment in the same unit of work. Network
// calls happen before the unit of work opens so the write lock is held only
// for local work. MatchCollection fans out over a collection's unmatched
// releases with bounded concurrency.
package matcher
