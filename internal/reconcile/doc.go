// Package reconcile converges local collections onto the marketplace's
// collection folders.
//
// Sync walks one remote folder in order, ingesting releases that are new to
// the library and linking them into the local collection one unit of work per
// item, then unlinks members that disappeared upstream. Release rows are never
// deleted here because other collections may still reference them.
// SyncFolders mirrors the folder list itself into Collection rows.
package reconcile
