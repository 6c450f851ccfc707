package testsupport

import (
	"path/filepath"
	"testing"

	"platter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OverridesPath = filepath.Join(base, "overrides.json")
	cfg.Discogs.Token = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCatalogServers points both catalog clients at local fake servers.
func WithCatalogServers(discogsURL, musicbrainzURL string) ConfigOption {
	return func(cfg *config.Config) {
		if discogsURL != "" {
			cfg.Discogs.BaseURL = discogsURL
		}
		if musicbrainzURL != "" {
			cfg.MusicBrainz.BaseURL = musicbrainzURL
		}
	}
}
