package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"platter/internal/catalog/discogs"
	"platter/internal/catalog/musicbrainz"
	"platter/internal/config"
	"platter/internal/jobs"
	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the library for the duration of fn.
func (c *commandContext) withStore(fn func(*library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) discogsClient() (*discogs.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return discogs.New(cfg.Discogs)
}

func (c *commandContext) musicbrainzClient() (*musicbrainz.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return musicbrainz.New(cfg.MusicBrainz)
}

// jobRunner returns a runner over store using the configured lock directory.
func (c *commandContext) jobRunner(store *library.Store) (*jobs.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return jobs.NewRunner(store, cfg.LockDir(), logger), nil
}

// runJob executes fn under a job record guarded by the per-target lock.
func (c *commandContext) runJob(ctx context.Context, store *library.Store, kind string, targetID int64, fn jobs.Func) (*library.Job, error) {
	runner, err := c.jobRunner(store)
	if err != nil {
		return nil, err
	}
	job, err := runner.Run(ctx, kind, targetID, fn)
	if errors.Is(err, jobs.ErrJobInProgress) {
		return nil, fmt.Errorf("%w; wait for it to finish or check `platter jobs list`", err)
	}
	return job, err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewValidationError(field, fmt.Sprintf("expected a positive integer, got %q", raw))
	}
	return id, nil
}
