// Package catalog defines the canonical shapes both upstream catalog clients
// produce and a small rate-limited JSON requester they share.
//
// The discogs subpackage adapts marketplace payloads into RawRelease before
// anything reaches ingestion; the musicbrainz subpackage adapts metadata
// catalog payloads into Candidate and SecondRelease. Nothing outside these
// packages sees upstream JSON.
package catalog
