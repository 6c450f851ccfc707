package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"platter/internal/logging"
)

// Catalog loads user-authored patches from a JSON file.
type Catalog struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	loaded  time.Time
	entries []Patch
}

// NewCatalog constructs a catalog backed by the JSON file at path. It returns
// nil when path is empty.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{path: trimmed, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Patches returns the current file contents, reloading when the file changed.
// A missing file yields no patches.
func (c *Catalog) Patches() ([]Patch, error) {
	if c == nil {
		return nil, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Patch, len(c.entries))
	copy(out, c.entries)
	return out, nil
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.mu.Lock()
			c.entries, c.loaded = nil, time.Time{}
			c.mu.Unlock()
			return nil
		}
		return err
	}

	c.mu.RLock()
	current := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if current {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	entries, err := parsePatches(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded overrides", logging.String("path", c.path), logging.Int("count", len(entries)))
	return nil
}

// parsePatches accepts either a bare array or an object with a "patches" field.
func parsePatches(data []byte) ([]Patch, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Patch
	if data[0] == '{' {
		var wrapper struct {
			Patches []Patch `json:"patches"`
		}
		if err := decode(data, &wrapper); err != nil {
			return nil, err
		}
		entries = wrapper.Patches
	} else if err := decode(data, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].normalize()
	}
	return entries, nil
}

func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
