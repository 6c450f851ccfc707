// Package config loads, normalizes, and validates Platter configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DISCOGS_TOKEN. The Config type centralizes every knob the CLI and the
// background jobs need: data and log directories, catalog credentials and rate
// limits, and the matching thresholds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
