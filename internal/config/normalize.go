package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscogs()
	c.normalizeMusicBrainz()
	c.normalizeMatching()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OverridesPath, err = expandPath(strings.TrimSpace(c.Paths.OverridesPath)); err != nil {
		return fmt.Errorf("paths.overrides_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscogs() {
	c.Discogs.Token = strings.TrimSpace(c.Discogs.Token)
	if c.Discogs.Token == "" {
		if value, ok := os.LookupEnv("DISCOGS_TOKEN"); ok {
			c.Discogs.Token = strings.TrimSpace(value)
		}
	}
	c.Discogs.BaseURL = strings.TrimRight(strings.TrimSpace(c.Discogs.BaseURL), "/")
	if c.Discogs.BaseURL == "" {
		c.Discogs.BaseURL = defaultDiscogsBaseURL
	}
	c.Discogs.UserAgent = strings.TrimSpace(c.Discogs.UserAgent)
	if c.Discogs.UserAgent == "" {
		c.Discogs.UserAgent = defaultDiscogsUserAgent
	}
	if c.Discogs.RequestsPerMinute <= 0 {
		c.Discogs.RequestsPerMinute = defaultDiscogsRequestsPerMin
	}
	if c.Discogs.TimeoutSeconds <= 0 {
		c.Discogs.TimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeMusicBrainz() {
	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")
	if c.MusicBrainz.BaseURL == "" {
		c.MusicBrainz.BaseURL = defaultMusicBrainzBaseURL
	}
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)
	if c.MusicBrainz.UserAgent == "" {
		if value, ok := os.LookupEnv("MUSICBRAINZ_USER_AGENT"); ok {
			c.MusicBrainz.UserAgent = strings.TrimSpace(value)
		}
	}
	if c.MusicBrainz.RequestsPerSecond <= 0 {
		c.MusicBrainz.RequestsPerSecond = defaultMusicBrainzRate
	}
	if c.MusicBrainz.CacheSize <= 0 {
		c.MusicBrainz.CacheSize = defaultMusicBrainzCacheSize
	}
	if c.MusicBrainz.TimeoutSeconds <= 0 {
		c.MusicBrainz.TimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.CrossReferenceCode <= 0 {
		c.Matching.CrossReferenceCode = defaultCrossReferenceCode
	}
	if c.Matching.TitleWeight == 0 && c.Matching.PositionWeight == 0 {
		c.Matching.TitleWeight = defaultTitleWeight
		c.Matching.PositionWeight = defaultPositionWeight
	}
	if c.Matching.PositionPenalty <= 0 {
		c.Matching.PositionPenalty = defaultPositionPenalty
	}
	if c.Matching.Concurrency <= 0 {
		c.Matching.Concurrency = defaultMatchConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
