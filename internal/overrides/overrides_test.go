package overrides

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
	"platter/internal/testsupport"
)

func TestParsePatchesAcceptsWrapperAndNormalizes(t *testing.T) {
	data := []byte("\xEF\xBB\xBF{ \"patches\": [{\"kind\":\" Release \",\"target_id\":3,\"field\":\" YEAR \",\"value\":1972}]}")
	entries, err := parsePatches(data)
	if err != nil {
		t.Fatalf("parsePatches: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	p := entries[0]
	if p.Kind != KindRelease || p.Field != "year" || p.TargetID != 3 {
		t.Fatalf("unexpected normalized patch %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateNamesOffendingField(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		field string
	}{
		{"kind", Patch{Kind: "artist", TargetID: 1, Field: "name", Value: "x"}, "kind"},
		{"target", Patch{Kind: KindRelease, Field: "title", Value: "x"}, "target_id"},
		{"field", Patch{Kind: KindRelease, TargetID: 1, Field: "source_id", Value: 5}, "field"},
		{"track match", Patch{Kind: KindTrack, TargetID: 1, Field: "match_id", Value: 5}, "field"},
		{"year text", Patch{Kind: KindRelease, TargetID: 1, Field: "year", Value: "nineteen"}, "value"},
		{"empty title", Patch{Kind: KindTrack, TargetID: 1, Field: "title", Value: "  "}, "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			var verr *services.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func seedRelease(t *testing.T, store *library.Store) (*library.Release, *library.Track) {
	t.Helper()
	ctx := context.Background()
	rel := &library.Release{SourceID: 1, Title: "Wrong Title", Year: 1970}
	if err := store.InsertRelease(ctx, rel); err != nil {
		t.Fatalf("InsertRelease: %v", err)
	}
	tr := &library.Track{ReleaseID: rel.ID, Position: "A1", Type: "track", Title: "Intro"}
	if err := store.InsertTrack(ctx, tr, 0); err != nil {
		t.Fatalf("InsertTrack: %v", err)
	}
	return rel, tr
}

func TestApplyWritesWhitelistedFields(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rel, tr := seedRelease(t, store)

	result, err := Apply(ctx, store, []Patch{
		{Kind: KindRelease, TargetID: rel.ID, Field: "title", Value: "Right Title"},
		{Kind: KindRelease, TargetID: rel.ID, Field: "year", Value: "1972"},
		{Kind: KindTrack, TargetID: tr.ID, Field: "duration", Value: "4:05"},
		{Kind: KindTrack, TargetID: tr.ID + 100, Field: "title", Value: "Ghost"},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Applied != 3 || result.Missing != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	got, _ := store.GetRelease(ctx, rel.ID)
	if got.Title != "Right Title" || got.Year != 1972 {
		t.Fatalf("release not patched: %+v", got)
	}
	track, _ := store.GetTrack(ctx, tr.ID)
	if track.Duration != "4:05" || track.DurationSeconds == nil || *track.DurationSeconds != 245 {
		t.Fatalf("track duration not patched: %+v", track)
	}
}

func TestApplyRejectsBatchWithInvalidPatch(t *testing.T) {
	ctx := context.Background()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rel, _ := seedRelease(t, store)

	_, err := Apply(ctx, store, []Patch{
		{Kind: KindRelease, TargetID: rel.ID, Field: "title", Value: "Changed"},
		{Kind: KindRelease, TargetID: rel.ID, Field: "thumb", Value: "x"},
	}, logging.NewNop())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := store.GetRelease(ctx, rel.ID)
	if got.Title != "Wrong Title" {
		t.Fatalf("expected no partial application, got title %q", got.Title)
	}
}

func TestCatalogReloadsOnChange(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	rel, _ := seedRelease(t, store)

	catalog := NewCatalog(cfg.Paths.OverridesPath, logging.NewNop())
	if patches, err := catalog.Patches(); err != nil || len(patches) != 0 {
		t.Fatalf("expected no patches for missing file, got %v %v", patches, err)
	}

	path := cfg.Paths.OverridesPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write := func(body string, mod time.Time) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write overrides: %v", err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	base := time.Now().Add(-time.Hour)
	write(`[{"kind":"release","target_id":1,"field":"title","value":"First"}]`, base)

	result, err := ApplyCatalog(ctx, store, catalog, logging.NewNop())
	if err != nil || result.Applied != 1 {
		t.Fatalf("ApplyCatalog: %+v %v", result, err)
	}

	write(`{"patches":[{"kind":"release","target_id":1,"field":"title","value":"Second"},{"kind":"release","target_id":1,"field":"master_id","value":77}]}`, base.Add(time.Minute))
	result, err = ApplyCatalog(ctx, store, catalog, logging.NewNop())
	if err != nil || result.Applied != 2 {
		t.Fatalf("ApplyCatalog after change: %+v %v", result, err)
	}
	got, _ := store.GetRelease(ctx, rel.ID)
	if got.Title != "Second" || got.MasterID != 77 {
		t.Fatalf("expected reloaded patches applied, got %+v", got)
	}

	if NewCatalog("  ", nil) != nil {
		t.Fatal("expected nil catalog for empty path")
	}
}
