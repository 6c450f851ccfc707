package overrides

import (
	"context"
	"fmt"
	"log/slog"

	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
)

// Result summarizes one Apply call.
type Result struct {
	Applied int
	// Missing counts patches whose target no longer exists.
	Missing int
}

// Apply validates every patch and then writes them in one unit of work. An
// invalid patch rejects the whole batch. Patches whose target row is gone are
// skipped with a warning.
func Apply(ctx context.Context, store *library.Store, patches []Patch, logger *slog.Logger) (Result, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "overrides"))

	planned := make([][]column, len(patches))
	for i := range patches {
		patches[i].normalize()
		cols, err := patches[i].columns()
		if err != nil {
			return Result{}, fmt.Errorf("patch %d: %w", i, err)
		}
		planned[i] = cols
	}

	var result Result
	err := store.WithTx(ctx, func(tx *library.Tx) error {
		for i, p := range patches {
			found := true
			for _, col := range planned[i] {
				var (
					ok  bool
					err error
				)
				switch p.Kind {
				case KindRelease:
					ok, err = tx.UpdateReleaseColumn(ctx, p.TargetID, col.name, col.value)
				case KindTrack:
					ok, err = tx.UpdateTrackColumn(ctx, p.TargetID, col.name, col.value)
				}
				if err != nil {
					return services.Wrap(services.ErrTransient, "overrides", "apply", fmt.Sprintf("patch %d", i), err)
				}
				found = found && ok
			}
			if !found {
				result.Missing++
				logging.WarnWithContext(logger, "override target missing", "override_missing",
					logging.String("kind", string(p.Kind)),
					logging.Int64("target_id", p.TargetID),
					logging.String("field", p.Field),
					logging.String(logging.FieldErrorHint, "remove the patch or correct its target_id"),
					logging.String(logging.FieldImpact, "patch skipped"),
				)
				continue
			}
			result.Applied++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	logger.Info("overrides applied", logging.Int("applied", result.Applied), logging.Int("missing", result.Missing))
	return result, nil
}

// ApplyCatalog loads the catalog's current patches and applies them.
func ApplyCatalog(ctx context.Context, store *library.Store, catalog *Catalog, logger *slog.Logger) (Result, error) {
	patches, err := catalog.Patches()
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "overrides", "load", "", err)
	}
	if len(patches) == 0 {
		return Result{}, nil
	}
	return Apply(ctx, store, patches, logger)
}
