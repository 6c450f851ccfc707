package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"platter/internal/config"
	"platter/internal/library"
	"platter/internal/testsupport"
)

const (
	testDiscogsUser = "alice-discogs"
	testFolderID    = 5
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *library.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("DISCOGS_TOKEN", "")

	discogsServer := httptest.NewServer(http.HandlerFunc(fakeDiscogs))
	t.Cleanup(discogsServer.Close)
	mbServer := httptest.NewServer(http.HandlerFunc(fakeMusicBrainz))
	t.Cleanup(mbServer.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithCatalogServers(discogsServer.URL, mbServer.URL))
	cfg.Discogs.RequestsPerMinute = 60000
	cfg.MusicBrainz.RequestsPerSecond = 1000
	cfg.Logging.Level = "error"

	configPath := filepath.Join(homeDir, ".config", "platter", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("platter %s: %v (stderr %q)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fakeDiscogs serves one user with an "All" folder and a "Jazz" folder
// holding releases 101 and 102.
func fakeDiscogs(w http.ResponseWriter, r *http.Request) {
	folders := "/users/" + testDiscogsUser + "/collection/folders"
	switch {
	case r.URL.Path == folders:
		writeJSONResponse(w, map[string]any{"folders": []map[string]any{
			{"id": 0, "name": "All", "count": 2},
			{"id": testFolderID, "name": "Jazz", "count": 2},
		}})
	case r.URL.Path == fmt.Sprintf("%s/%d/releases", folders, testFolderID):
		writeJSONResponse(w, map[string]any{
			"pagination": map[string]any{"page": 1, "pages": 1},
			"releases": []map[string]any{
				{"id": 101, "basic_information": map[string]any{"id": 101, "title": "Release 101"}},
				{"id": 102, "basic_information": map[string]any{"id": 102, "title": "Release 102"}},
			},
		})
	case strings.HasPrefix(r.URL.Path, "/releases/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/releases/"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		tracks := make([]map[string]any, 0, 4)
		for _, pos := range []string{"A1", "A2", "B1", "B2"} {
			tracks = append(tracks, map[string]any{"position": pos, "type_": "track", "title": "Track " + pos, "duration": "3:30"})
		}
		writeJSONResponse(w, map[string]any{
			"id":           id,
			"master_id":    id * 10,
			"title":        fmt.Sprintf("Release %d", id),
			"artists_sort": "Test Artist",
			"year":         1960 + id%10,
			"artists":      []map[string]any{{"id": 1, "name": "Test Artist"}},
			"formats":      []map[string]any{{"name": "Vinyl", "qty": "1", "descriptions": []string{"LP", "Album"}}},
			"tracklist":    tracks,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// fakeMusicBrainz cross-references release 101 to mb-101 and knows nothing
// else.
func fakeMusicBrainz(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/url":
		if r.URL.Query().Get("resource") != "https://www.discogs.com/release/101" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSONResponse(w, map[string]any{"id": "u1", "relations": []map[string]any{
			{"type": "discogs", "target-type": "release", "release": map[string]any{"id": "mb-101"}},
		}})
	case "/release":
		writeJSONResponse(w, map[string]any{"count": 0, "releases": []any{}})
	case "/release/mb-101":
		tracks := make([]map[string]any, 0, 4)
		for i, pos := range []string{"A1", "A2", "B1", "B2"} {
			tracks = append(tracks, map[string]any{
				"id": "t-" + pos, "number": pos, "position": i + 1, "title": "Track " + pos, "length": 210000,
				"recording": map[string]any{"id": "r-" + pos, "title": "Track " + pos, "length": 210000},
			})
		}
		writeJSONResponse(w, map[string]any{"id": "mb-101", "title": "Release 101", "media": []map[string]any{
			{"position": 1, "format": "12\" Vinyl", "tracks": tracks},
		}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
