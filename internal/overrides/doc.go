// Package overrides applies curated manual fixes to stored releases and
// tracks.
//
// A Patch names one entity, one whitelisted field, and the new value. Patches
// live in a JSON file that is reloaded when its modification time changes,
// and Apply validates a batch before writing any of it in a single unit of
// work.
package overrides
