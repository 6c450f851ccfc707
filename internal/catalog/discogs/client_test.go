package discogs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"platter/internal/catalog/discogs"
	"platter/internal/config"
	"platter/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *discogs.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().Discogs
	cfg.BaseURL = server.URL
	cfg.Token = "secret"
	client, err := discogs.New(cfg, discogs.WithoutRateLimit())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestFoldersSendsTokenAndUserAgent(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Discogs token=secret" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected User-Agent header")
		}
		if r.URL.Path != "/users/jazzfan/collection/folders" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"folders":[{"id":0,"name":"All","count":3,"resource_url":"https://api/folders/0"},{"id":7,"name":" Jazz ","count":2}]}`))
	})

	folders, err := client.Folders(context.Background(), "jazzfan")
	if err != nil {
		t.Fatalf("Folders returned error: %v", err)
	}
	if len(folders) != 2 || folders[1].ID != 7 || folders[1].Name != "Jazz" || folders[0].Count != 3 {
		t.Fatalf("unexpected folders: %#v", folders)
	}
}

func TestFolderItemsFollowsPagination(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"pagination":{"page":1,"pages":2},"releases":[{"id":11,"basic_information":{"id":11,"title":"One"}},{"id":12,"basic_information":{"id":12,"title":"Two"}}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"pagination":{"page":2,"pages":2},"releases":[{"id":13,"basic_information":{"id":13,"title":"Three"}}]}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	items, err := client.FolderItems(context.Background(), "jazzfan", 7)
	if err != nil {
		t.Fatalf("FolderItems returned error: %v", err)
	}
	want := []int64{11, 12, 13}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %#v", len(want), items)
	}
	for i, id := range want {
		if items[i].ReleaseID != id {
			t.Fatalf("item %d: got %d want %d", i, items[i].ReleaseID, id)
		}
	}
}

func TestReleaseAdaptsPayload(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases/249504" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 249504, "master_id": 96559, "title": "Kind Of Blue ", "artists_sort": "Miles Davis (2)",
			"year": 1959, "thumb": "https://img/thumb.jpg",
			"images": [{"type":"secondary","uri":"https://img/back.jpg"},{"type":"primary","uri":"https://img/front.jpg"}],
			"artists": [{"id": 23755, "name": "Miles Davis (2)", "resource_url": "https://api/artists/23755"}],
			"formats": [{"name":"Vinyl","qty":"2","text":"Gatefold","descriptions":["LP","Album"]},{"name":"CD","qty":1}],
			"tracklist": [
				{"position":"","type_":"heading","title":"Side One","duration":""},
				{"position":"A1","type_":"track","title":"So What","duration":"9:22"}
			]
		}`))
	})

	raw, err := client.Release(context.Background(), 249504)
	if err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if raw.ID != 249504 || raw.MasterID != 96559 || raw.Year != 1959 {
		t.Fatalf("unexpected ids: %#v", raw)
	}
	if raw.CoverImage != "https://img/front.jpg" {
		t.Fatalf("expected primary image as cover, got %q", raw.CoverImage)
	}
	if len(raw.Formats) != 2 || raw.Formats[0].Quantity != "2" || raw.Formats[1].Quantity != "1" {
		t.Fatalf("unexpected formats: %#v", raw.Formats)
	}
	if len(raw.Tracklist) != 2 || raw.Tracklist[0].Type != "heading" || raw.Tracklist[1].Duration != "9:22" {
		t.Fatalf("unexpected tracklist: %#v", raw.Tracklist)
	}
}

func TestReleaseNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Release not found."}`))
	})

	_, err := client.Release(context.Background(), 1)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Folders(context.Background(), "jazzfan")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestFoldersRequiresUsername(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.Folders(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty username")
	}
}
