// Package musicbrainz is the metadata catalog client used for release
// cross-references.
//
// It exposes the three lookups the matcher needs: releases related to a
// marketplace URL, a scored attribute search, and a full release with its
// recordings. Full releases are normalized into catalog.SecondRelease and kept
// in a bounded LRU cache, since batch matching often revisits the same
// candidate. Requests are throttled to the catalog's one-per-second etiquette
// and always carry the configured User-Agent.
package musicbrainz
