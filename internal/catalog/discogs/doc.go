// Package discogs is the marketplace catalog client.
//
// It lists a user's collection folders and their releases and fetches full
// release payloads, adapting each into catalog.RawRelease. Requests carry the
// personal access token and are throttled to the configured per-minute budget.
package discogs
