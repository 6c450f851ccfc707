package resolver_test

import (
	"context"
	"testing"

	"platter/internal/library"
	"platter/internal/resolver"
	"platter/internal/testsupport"
)

func TestResolveArtistSeesStagedRowInSameTx(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()

	candidate := library.Artist{SourceID: 23755, Name: "Miles Davis"}
	first, created, err := resolver.Resolve(ctx, tx, resolver.Artist, candidate)
	if err != nil || !created {
		t.Fatalf("first resolve: created=%v err=%v", created, err)
	}
	for i := 0; i < 3; i++ {
		again, created, err := resolver.Resolve(ctx, tx, resolver.Artist, library.Artist{SourceID: 23755, Name: "Other Name"})
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if created {
			t.Fatalf("resolve %d: expected existing staged row", i)
		}
		if again.ID != first.ID || again.Name != "Miles Davis" {
			t.Fatalf("resolve %d: expected unchanged entity %#v, got %#v", i, first, again)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Artists != 1 {
		t.Fatalf("expected one artist row, got %d", counts.Artists)
	}
}

func TestResolveAcrossUnitsOfWork(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 2; i++ {
		err := store.WithTx(ctx, func(tx *library.Tx) error {
			d, _, err := resolver.Resolve(ctx, tx, resolver.FormatDescription, library.FormatDescription{Text: " LP "})
			ids = append(ids, d.ID)
			return err
		})
		if err != nil {
			t.Fatalf("WithTx %d: %v", i, err)
		}
	}
	if ids[0] != ids[1] {
		t.Fatalf("expected same description id, got %v", ids)
	}
	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.FormatDescriptions != 1 {
		t.Fatalf("expected one description, got %d", counts.FormatDescriptions)
	}
}

func TestRolledBackCreateIsForgotten(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, created, err := resolver.Resolve(ctx, tx, resolver.SecondRelease, library.SecondRelease{MBID: "mb-1", Title: "Kind of Blue"}); err != nil || !created {
		t.Fatalf("resolve: created=%v err=%v", created, err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	found, err := store.SecondReleaseByMBID(ctx, "mb-1")
	if err != nil {
		t.Fatalf("SecondReleaseByMBID: %v", err)
	}
	if found != nil {
		t.Fatalf("expected rolled back row to be absent, got %#v", found)
	}
}
