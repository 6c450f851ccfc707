package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"platter/internal/catalog"
	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/reconcile"
	"platter/internal/services"
	"platter/internal/testsupport"
)

type fakeSource struct {
	folders  []catalog.Folder
	items    map[int64][]catalog.FolderItem
	releases map[int64]*catalog.RawRelease
	failOn   int64
	fetched  []int64
}

func (f *fakeSource) Folders(context.Context, string) ([]catalog.Folder, error) {
	return f.folders, nil
}

func (f *fakeSource) FolderItems(_ context.Context, _ string, folderID int64) ([]catalog.FolderItem, error) {
	return f.items[folderID], nil
}

func (f *fakeSource) Release(_ context.Context, id int64) (*catalog.RawRelease, error) {
	f.fetched = append(f.fetched, id)
	if id == f.failOn {
		return nil, services.Wrap(services.ErrTransient, "discogs", "get", "503", nil)
	}
	raw, ok := f.releases[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "discogs", "get", "", nil)
	}
	return raw, nil
}

func newSource(folderID int64, ids ...int64) *fakeSource {
	src := &fakeSource{
		folders:  []catalog.Folder{{ID: folderID, Name: "Uncategorized", Count: len(ids)}},
		items:    map[int64][]catalog.FolderItem{},
		releases: map[int64]*catalog.RawRelease{},
	}
	for _, id := range ids {
		src.items[folderID] = append(src.items[folderID], catalog.FolderItem{ReleaseID: id})
		src.releases[id] = testsupport.RawRelease(id, "A1", "B1")
	}
	return src
}

func memberSet(t *testing.T, store *library.Store, collectionID int64) map[int64]int64 {
	t.Helper()
	members, err := store.MemberSourceIDs(context.Background(), collectionID)
	if err != nil {
		t.Fatalf("MemberSourceIDs: %v", err)
	}
	return members
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")
	src := newSource(0, 11, 12, 13)
	syncer := reconcile.New(store, src, logging.NewNop())

	first, err := syncer.Sync(ctx, coll.ID, nil)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if first.Created != 3 || first.Linked != 3 || first.Removed != 0 {
		t.Fatalf("unexpected first result %#v", first)
	}
	before, _ := store.Counts(ctx)

	second, err := syncer.Sync(ctx, coll.ID, nil)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if second.Created != 0 || second.Linked != 0 || second.Removed != 0 {
		t.Fatalf("expected no changes on rerun, got %#v", second)
	}
	after, _ := store.Counts(ctx)
	if before != after {
		t.Fatalf("counts changed on rerun: %#v -> %#v", before, after)
	}
	if got := memberSet(t, store, coll.ID); len(got) != 3 {
		t.Fatalf("expected 3 members, got %#v", got)
	}
	if len(src.fetched) != 3 {
		t.Fatalf("expected known releases not to be refetched, fetched %v", src.fetched)
	}
	refreshed, _ := store.GetCollection(ctx, coll.ID)
	if refreshed.Count != 3 {
		t.Fatalf("expected cached count refreshed to 3, got %d", refreshed.Count)
	}
}

func TestSyncRemovesMembershipButKeepsSharedRelease(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	all := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")
	jazz := testsupport.MustCreateCollection(t, store, user.ID, 7, "Jazz")

	src := newSource(0, 21, 22)
	src.folders = append(src.folders, catalog.Folder{ID: 7, Name: "Jazz", Count: 1})
	src.items[7] = []catalog.FolderItem{{ReleaseID: 22}}
	syncer := reconcile.New(store, src, logging.NewNop())

	if _, err := syncer.Sync(ctx, all.ID, nil); err != nil {
		t.Fatalf("Sync all: %v", err)
	}
	if _, err := syncer.Sync(ctx, jazz.ID, nil); err != nil {
		t.Fatalf("Sync jazz: %v", err)
	}

	src.items[0] = []catalog.FolderItem{{ReleaseID: 21}}
	result, err := syncer.Sync(ctx, all.ID, nil)
	if err != nil {
		t.Fatalf("Sync after removal: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("expected one membership removed, got %#v", result)
	}
	if got := memberSet(t, store, all.ID); len(got) != 1 || got[21] == 0 {
		t.Fatalf("unexpected members %#v", got)
	}
	shared, err := store.ReleaseBySourceID(ctx, 22)
	if err != nil || shared == nil {
		t.Fatalf("expected shared release row to survive, got %v %v", shared, err)
	}
	if ok, _ := store.IsMember(ctx, jazz.ID, shared.ID); !ok {
		t.Fatal("expected release to stay linked to the other collection")
	}
}

func TestSyncReportsProgress(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")
	syncer := reconcile.New(store, newSource(0, 1, 2, 3, 4), logging.NewNop())

	var got []reconcile.Progress
	if _, err := syncer.Sync(ctx, coll.ID, func(p reconcile.Progress) { got = append(got, p) }); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := []reconcile.Progress{
		{Percent: 25, Synced: 0, Total: 4, State: reconcile.StateRunning},
		{Percent: 50, Synced: 1, Total: 4, State: reconcile.StateRunning},
		{Percent: 75, Synced: 2, Total: 4, State: reconcile.StateRunning},
		{Percent: 100, Synced: 3, Total: 4, State: reconcile.StateRunning},
		{Percent: 100, Synced: 4, Total: 4, State: reconcile.StateDone},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d checkpoints, got %#v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("checkpoint %d: got %#v want %#v", i, got[i], want[i])
		}
	}
}

func TestSyncUnknownFolderIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 99, "Gone")
	syncer := reconcile.New(store, newSource(0, 1), logging.NewNop())

	var last reconcile.Progress
	_, err := syncer.Sync(ctx, coll.ID, func(p reconcile.Progress) { last = p })
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if last.State != reconcile.StateFailed || last.Err == nil {
		t.Fatalf("expected failed terminal checkpoint, got %#v", last)
	}

	if _, err := syncer.Sync(ctx, coll.ID+100, nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing collection, got %v", err)
	}
}

func TestSyncRetryAfterFailureConverges(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")
	src := newSource(0, 31, 32, 33)
	src.failOn = 32
	syncer := reconcile.New(store, src, logging.NewNop())

	_, err := syncer.Sync(ctx, coll.ID, nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	partial := memberSet(t, store, coll.ID)
	if len(partial) != 1 || partial[31] == 0 {
		t.Fatalf("expected only the first item committed, got %#v", partial)
	}

	src.failOn = 0
	if _, err := syncer.Sync(ctx, coll.ID, nil); err != nil {
		t.Fatalf("retry Sync: %v", err)
	}
	if got := memberSet(t, store, coll.ID); len(got) != 3 {
		t.Fatalf("expected convergence to 3 members, got %#v", got)
	}
	counts, _ := store.Counts(ctx)
	if counts.Releases != 3 || counts.Artists != 1 {
		t.Fatalf("unexpected counts after retry %#v", counts)
	}
}

func TestSyncFoldersUpserts(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	src := &fakeSource{folders: []catalog.Folder{
		{ID: 0, Name: "All", Count: 10},
		{ID: 4, Name: "Jazz", Count: 2},
	}}
	syncer := reconcile.New(store, src, logging.NewNop())

	first, err := syncer.SyncFolders(ctx, user.ID)
	if err != nil || len(first) != 2 {
		t.Fatalf("SyncFolders: %#v %v", first, err)
	}
	src.folders[1].Name = "Jazz & Blues"
	second, err := syncer.SyncFolders(ctx, user.ID)
	if err != nil {
		t.Fatalf("second SyncFolders: %v", err)
	}
	if second[1].ID != first[1].ID || second[1].Name != "Jazz & Blues" {
		t.Fatalf("expected rename in place, got %#v", second[1])
	}
	list, _ := store.ListCollections(ctx, user.ID)
	if len(list) != 2 {
		t.Fatalf("expected 2 collections, got %#v", list)
	}

	if _, err := syncer.SyncFolders(ctx, user.ID+50); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSyncAcceptsZeroQuantityFormat(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")
	src := newSource(0, 31, 32, 33)
	src.releases[32].Formats[0].Quantity = "0"
	syncer := reconcile.New(store, src, logging.NewNop())

	result, err := syncer.Sync(ctx, coll.ID, nil)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Created != 3 {
		t.Fatalf("expected all three releases ingested, got %#v", result)
	}
	if got := memberSet(t, store, coll.ID); len(got) != 3 {
		t.Fatalf("expected 3 members, got %#v", got)
	}
}
