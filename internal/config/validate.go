package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalogs(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalogs() error {
	if _, err := parseBaseURL(c.Discogs.BaseURL); err != nil {
		return fmt.Errorf("discogs.base_url: %w", err)
	}
	if _, err := parseBaseURL(c.MusicBrainz.BaseURL); err != nil {
		return fmt.Errorf("musicbrainz.base_url: %w", err)
	}
	if strings.TrimSpace(c.MusicBrainz.UserAgent) == "" {
		return errors.New("musicbrainz.user_agent must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ScoreThreshold < 0 || c.Matching.ScoreThreshold > 100 {
		return fmt.Errorf("matching.score_threshold must be between 0 and 100, got %d", c.Matching.ScoreThreshold)
	}
	if c.Matching.CrossReferenceCode <= 100 {
		return fmt.Errorf("matching.cross_reference_code must exceed the search score range, got %d", c.Matching.CrossReferenceCode)
	}
	if c.Matching.TitleWeight < 0 || c.Matching.PositionWeight < 0 {
		return errors.New("matching weights must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("missing host")
	}
	return parsed, nil
}
