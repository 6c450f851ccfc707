package testsupport

import (
	"context"
	"testing"

	"platter/internal/config"
	"platter/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustCreateUser registers a user for tests.
func MustCreateUser(t testing.TB, store *library.Store, name string) *library.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), name, name+"-discogs")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// MustCreateCollection registers a collection mirroring folderID for tests.
func MustCreateCollection(t testing.TB, store *library.Store, userID, folderID int64, name string) *library.Collection {
	t.Helper()

	coll := &library.Collection{UserID: userID, FolderID: folderID, Name: name}
	if _, err := store.UpsertCollection(context.Background(), coll); err != nil {
		t.Fatalf("UpsertCollection: %v", err)
	}
	return coll
}
