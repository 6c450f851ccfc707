package library_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"platter/internal/library"
	"platter/internal/services"
	"platter/internal/testsupport"
)

func insertRelease(t *testing.T, store *library.Store, sourceID int64, title string, year int) *library.Release {
	t.Helper()
	rel := &library.Release{SourceID: sourceID, Title: title, ArtistsSort: title, Year: year}
	if err := store.InsertRelease(context.Background(), rel); err != nil {
		t.Fatalf("InsertRelease: %v", err)
	}
	return rel
}

func TestOpenCreatesSchemaOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected path %q", store.Path())
	}
	testsupport.MustCreateUser(t, store, "ana")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	user, err := reopened.UserByName(context.Background(), "ana")
	if err != nil || user == nil {
		t.Fatalf("expected user to survive reopen, got %v %v", user, err)
	}
	if user.DiscogsUsername != "ana-discogs" {
		t.Fatalf("unexpected discogs username %q", user.DiscogsUsername)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(`UPDATE schema_version SET version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := library.Open(cfg); !errors.Is(err, library.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTxStagedRowsVisibleAndRollback(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.InsertArtist(ctx, &library.Artist{SourceID: 7, Name: "Staged"}); err != nil {
		t.Fatalf("InsertArtist: %v", err)
	}
	staged, err := tx.ArtistBySourceID(ctx, 7)
	if err != nil || staged == nil {
		t.Fatalf("expected staged artist visible in tx, got %v %v", staged, err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, library.ErrTxDone) {
		t.Fatalf("expected ErrTxDone after rollback, got %v", err)
	}

	gone, err := store.ArtistBySourceID(ctx, 7)
	if err != nil {
		t.Fatalf("ArtistBySourceID: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected rolled back artist to be absent, got %#v", gone)
	}
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if err := store.WithTx(ctx, func(tx *library.Tx) error {
		return tx.InsertFormatDescription(ctx, &library.FormatDescription{Text: "LP"})
	}); err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}
	boom := errors.New("boom")
	if err := store.WithTx(ctx, func(tx *library.Tx) error {
		if err := tx.InsertFormatDescription(ctx, &library.FormatDescription{Text: "Album"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.FormatDescriptions != 1 {
		t.Fatalf("expected one committed description, got %d", counts.FormatDescriptions)
	}
}

func TestParseOrdering(t *testing.T) {
	order, err := library.ParseOrdering("Year", "DESC")
	if err != nil {
		t.Fatalf("ParseOrdering: %v", err)
	}
	if order.Field != "year" || !order.Desc {
		t.Fatalf("unexpected ordering %#v", order)
	}
	if order, err = library.ParseOrdering("", ""); err != nil || order.Field != "title" || order.Desc {
		t.Fatalf("expected default title asc, got %#v %v", order, err)
	}

	_, err = library.ParseOrdering("label", "asc")
	var verr *services.ValidationError
	if !errors.As(err, &verr) || verr.Field != "order" {
		t.Fatalf("expected order validation error, got %v", err)
	}
	if _, err := library.ParseOrdering("title", "sideways"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected direction validation error, got %v", err)
	}
}

func TestCollectionMembershipAndOrdering(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")
	other := testsupport.MustCreateCollection(t, store, user.ID, 5, "Jazz")

	b := insertRelease(t, store, 200, "Bravo", 1999)
	a := insertRelease(t, store, 100, "Alpha", 2005)
	c := insertRelease(t, store, 300, "Charlie", 1980)
	for _, rel := range []*library.Release{a, b, c} {
		added, err := store.AddMember(ctx, coll.ID, rel.ID)
		if err != nil || !added {
			t.Fatalf("AddMember(%d): %v %v", rel.ID, added, err)
		}
	}
	if added, err := store.AddMember(ctx, coll.ID, a.ID); err != nil || added {
		t.Fatalf("expected duplicate membership to be ignored, got %v %v", added, err)
	}
	if _, err := store.AddMember(ctx, other.ID, a.ID); err != nil {
		t.Fatalf("AddMember other: %v", err)
	}

	byTitle, err := store.CollectionReleases(ctx, coll.ID, library.Ordering{Field: "title"})
	if err != nil {
		t.Fatalf("CollectionReleases: %v", err)
	}
	if len(byTitle) != 3 || byTitle[0].Title != "Alpha" || byTitle[2].Title != "Charlie" {
		t.Fatalf("unexpected title order: %#v", byTitle)
	}
	byYear, err := store.CollectionReleases(ctx, coll.ID, library.Ordering{Field: "year", Desc: true})
	if err != nil {
		t.Fatalf("CollectionReleases: %v", err)
	}
	if byYear[0].Year != 2005 || byYear[2].Year != 1980 {
		t.Fatalf("unexpected year order: %#v", byYear)
	}

	members, err := store.MemberSourceIDs(ctx, coll.ID)
	if err != nil {
		t.Fatalf("MemberSourceIDs: %v", err)
	}
	if len(members) != 3 || members[100] != a.ID {
		t.Fatalf("unexpected members %#v", members)
	}

	removed, err := store.RemoveMembers(ctx, coll.ID, []int64{a.ID})
	if err != nil || removed != 1 {
		t.Fatalf("RemoveMembers: %d %v", removed, err)
	}
	if ok, _ := store.IsMember(ctx, coll.ID, a.ID); ok {
		t.Fatal("expected release removed from collection")
	}
	if ok, _ := store.IsMember(ctx, other.ID, a.ID); !ok {
		t.Fatal("expected release to remain in the other collection")
	}
	if rel, _ := store.GetRelease(ctx, a.ID); rel == nil {
		t.Fatal("expected release row to survive membership removal")
	}
}

func TestUpsertCollectionRefreshes(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	user := testsupport.MustCreateUser(t, store, "ana")

	coll := &library.Collection{UserID: user.ID, FolderID: 3, Name: "Old", Count: 1}
	created, err := store.UpsertCollection(ctx, coll)
	if err != nil || !created {
		t.Fatalf("expected create, got %v %v", created, err)
	}
	again := &library.Collection{UserID: user.ID, FolderID: 3, Name: "New", Count: 4}
	created, err = store.UpsertCollection(ctx, again)
	if err != nil || created {
		t.Fatalf("expected refresh, got %v %v", created, err)
	}
	if again.ID != coll.ID {
		t.Fatalf("expected same id, got %d and %d", coll.ID, again.ID)
	}
	got, err := store.GetCollection(ctx, coll.ID)
	if err != nil || got == nil || got.Name != "New" || got.Count != 4 {
		t.Fatalf("unexpected refreshed collection %#v %v", got, err)
	}
	list, err := store.ListCollections(ctx, user.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCollections: %#v %v", list, err)
	}
}

func TestTrackMatchesAttachOnLoad(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rel := insertRelease(t, store, 1, "Alpha", 1970)

	track := &library.Track{ReleaseID: rel.ID, Position: "A1", Type: "track", Title: "Intro"}
	if err := store.InsertTrack(ctx, track, 0); err != nil {
		t.Fatalf("InsertTrack: %v", err)
	}
	second := &library.SecondRelease{MBID: "mb-1", Title: "Alpha"}
	if err := store.InsertSecondRelease(ctx, second); err != nil {
		t.Fatalf("InsertSecondRelease: %v", err)
	}
	st := &library.SecondTrack{SecondReleaseID: second.ID, MBID: "mbt-1", Title: "Intro", Position: "A1", Number: 1, Duration: "2:00"}
	if err := store.InsertSecondTrack(ctx, st, 0); err != nil {
		t.Fatalf("InsertSecondTrack: %v", err)
	}
	if err := store.SetReleaseMatch(ctx, rel.ID, second.ID, 101); err != nil {
		t.Fatalf("SetReleaseMatch: %v", err)
	}
	if err := store.SetTrackMatch(ctx, track.ID, st.ID, 0); err != nil {
		t.Fatalf("SetTrackMatch: %v", err)
	}

	loaded, err := store.GetRelease(ctx, rel.ID)
	if err != nil {
		t.Fatalf("GetRelease: %v", err)
	}
	if loaded.MatchCode == nil || *loaded.MatchCode != 101 || loaded.Match == nil {
		t.Fatalf("expected release match, got %#v", loaded)
	}
	if loaded.MatchURL() != "https://musicbrainz.org/release/mb-1" {
		t.Fatalf("unexpected match url %q", loaded.MatchURL())
	}
	if loaded.Tracks[0].Match == nil || loaded.Tracks[0].Match.MBID != "mbt-1" {
		t.Fatalf("expected track match attached, got %#v", loaded.Tracks[0])
	}
	if got := loaded.Tracks[0].DisplayDuration(); got != "2:00" {
		t.Fatalf("expected duration from match, got %q", got)
	}

	if err := store.ClearTrackMatches(ctx, rel.ID); err != nil {
		t.Fatalf("ClearTrackMatches: %v", err)
	}
	cleared, _ := store.GetTrack(ctx, track.ID)
	if cleared.MatchID != nil || cleared.MatchCost != nil {
		t.Fatalf("expected cleared match, got %#v", cleared)
	}
}

func TestPatchColumnsAreWhitelisted(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rel := insertRelease(t, store, 1, "Alpha", 1970)

	ok, err := store.UpdateReleaseColumn(ctx, rel.ID, "title", "Alpha (Remaster)")
	if err != nil || !ok {
		t.Fatalf("UpdateReleaseColumn: %v %v", ok, err)
	}
	if ok, err := store.UpdateReleaseColumn(ctx, rel.ID+100, "title", "x"); err != nil || ok {
		t.Fatalf("expected missing release to report false, got %v %v", ok, err)
	}
	if _, err := store.UpdateReleaseColumn(ctx, rel.ID, "source_id", 5); err == nil {
		t.Fatal("expected non-whitelisted column to be rejected")
	}
	if _, err := store.UpdateTrackColumn(ctx, 1, "match_id", 5); err == nil {
		t.Fatal("expected non-whitelisted track column to be rejected")
	}
	got, _ := store.GetRelease(ctx, rel.ID)
	if got.Title != "Alpha (Remaster)" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	job := &library.Job{ID: "job-1", Kind: "sync", TargetID: 4}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Status != library.JobPending {
		t.Fatalf("expected pending default, got %s", job.Status)
	}
	job.Status = library.JobRunning
	job.Progress, job.Synced, job.Total = 50, 1, 2
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if job.FinishedAt != nil {
		t.Fatal("running job should not be finished")
	}
	job.Status = library.JobFailed
	job.ErrorKind, job.ErrorMessage = "upstream", "503"
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	latest, err := store.LatestJob(ctx, "sync", 4)
	if err != nil || latest == nil {
		t.Fatalf("LatestJob: %v %v", latest, err)
	}
	if latest.Status != library.JobFailed || latest.ErrorKind != "upstream" || latest.FinishedAt == nil || latest.Synced != 1 {
		t.Fatalf("unexpected job %#v", latest)
	}
	if missing, err := store.LatestJob(ctx, "match", 4); err != nil || missing != nil {
		t.Fatalf("expected no match job, got %#v %v", missing, err)
	}
	jobs, err := store.ListJobs(ctx, 0)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ListJobs: %#v %v", jobs, err)
	}
}

func TestDiscCountAndDescriptions(t *testing.T) {
	rel := library.Release{Formats: []library.Format{
		{Name: "Vinyl", Quantity: 2, Note: "Gatefold", Descriptions: []library.FormatDescription{{Text: "LP"}}},
		{Name: "CD", Quantity: 1},
		{Name: "All Media", Quantity: 1},
	}}
	if got := rel.DiscCount(); got != 3 {
		t.Fatalf("expected 3 discs, got %d", got)
	}
	if got := rel.Formats[0].DescriptionString(); got != "Gatefold, LP" {
		t.Fatalf("unexpected description string %q", got)
	}
}

func TestDeleteReleaseCascadesOwnedRows(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	user := testsupport.MustCreateUser(t, store, "ana")
	coll := testsupport.MustCreateCollection(t, store, user.ID, 0, "All")

	artist := &library.Artist{SourceID: 9, Name: "Shared"}
	if err := store.InsertArtist(ctx, artist); err != nil {
		t.Fatalf("InsertArtist: %v", err)
	}
	desc := &library.FormatDescription{Text: "LP"}
	if err := store.InsertFormatDescription(ctx, desc); err != nil {
		t.Fatalf("InsertFormatDescription: %v", err)
	}
	gone := insertRelease(t, store, 1, "Gone", 1970)
	kept := insertRelease(t, store, 2, "Kept", 1971)
	for _, rel := range []*library.Release{gone, kept} {
		if err := store.LinkReleaseArtist(ctx, rel.ID, artist.ID, 0); err != nil {
			t.Fatalf("LinkReleaseArtist: %v", err)
		}
		format := &library.Format{ReleaseID: rel.ID, Name: "Vinyl", Quantity: 1}
		if err := store.InsertFormat(ctx, format, 0); err != nil {
			t.Fatalf("InsertFormat: %v", err)
		}
		if err := store.LinkFormatDescription(ctx, format.ID, desc.ID, 0); err != nil {
			t.Fatalf("LinkFormatDescription: %v", err)
		}
		track := &library.Track{ReleaseID: rel.ID, Position: "A1", Type: "track", Title: "Intro"}
		if err := store.InsertTrack(ctx, track, 0); err != nil {
			t.Fatalf("InsertTrack: %v", err)
		}
		if _, err := store.AddMember(ctx, coll.ID, rel.ID); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}

	if err := store.DeleteRelease(ctx, gone.ID); err != nil {
		t.Fatalf("DeleteRelease: %v", err)
	}

	if rel, err := store.GetRelease(ctx, gone.ID); err != nil || rel != nil {
		t.Fatalf("expected release gone, got %#v %v", rel, err)
	}
	if tracks, err := store.Tracks(ctx, gone.ID); err != nil || len(tracks) != 0 {
		t.Fatalf("expected tracks gone, got %#v %v", tracks, err)
	}
	if ok, _ := store.IsMember(ctx, coll.ID, gone.ID); ok {
		t.Fatal("expected membership row gone")
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	for _, query := range []string{
		`SELECT COUNT(1) FROM formats WHERE release_id = ?`,
		`SELECT COUNT(1) FROM release_artists WHERE release_id = ?`,
		`SELECT COUNT(1) FROM collection_releases WHERE release_id = ?`,
	} {
		var got int
		if err := db.QueryRowContext(ctx, query, gone.ID).Scan(&got); err != nil {
			t.Fatalf("query %q: %v", query, err)
		}
		if got != 0 {
			t.Fatalf("%q: expected no rows, got %d", query, got)
		}
	}
	var orphanLinks int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM format_format_descriptions
        WHERE format_id NOT IN (SELECT id FROM formats)`).Scan(&orphanLinks); err != nil {
		t.Fatalf("count orphan links: %v", err)
	}
	if orphanLinks != 0 {
		t.Fatalf("expected no orphaned description links, got %d", orphanLinks)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Releases != 1 || counts.Tracks != 1 || counts.Artists != 1 || counts.FormatDescriptions != 1 {
		t.Fatalf("unexpected counts after delete %#v", counts)
	}
	survivor, err := store.GetRelease(ctx, kept.ID)
	if err != nil || survivor == nil {
		t.Fatalf("GetRelease kept: %#v %v", survivor, err)
	}
	if len(survivor.Artists) != 1 || len(survivor.Formats) != 1 || len(survivor.Formats[0].Descriptions) != 1 {
		t.Fatalf("expected surviving release intact, got %#v", survivor)
	}
	if ok, _ := store.IsMember(ctx, coll.ID, kept.ID); !ok {
		t.Fatal("expected surviving membership")
	}
}
