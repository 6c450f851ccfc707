package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"platter/internal/catalog"
	"platter/internal/ingest"
	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
)

const stageName = "sync"

// Source is the slice of the marketplace client used by reconciliation.
type Source interface {
	Folders(ctx context.Context, username string) ([]catalog.Folder, error)
	FolderItems(ctx context.Context, username string, folderID int64) ([]catalog.FolderItem, error)
	Release(ctx context.Context, id int64) (*catalog.RawRelease, error)
}

// State is the phase reported with each progress checkpoint.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Progress is one checkpoint of a sync run. After the i-th of N items
// (1-based) Percent is 100*i/N and Synced is i-1.
type Progress struct {
	Percent float64
	Synced  int
	Total   int
	State   State
	Err     error
}

// Sink receives progress checkpoints. It may be nil.
type Sink func(Progress)

// Result summarizes a finished sync.
type Result struct {
	Total   int
	Created int
	Linked  int
	Removed int64
}

// Syncer reconciles collections against a Source.
type Syncer struct {
	store  *library.Store
	source Source
	logger *slog.Logger
}

// New constructs a Syncer. The source handle is scoped to the caller's job.
func New(store *library.Store, source Source, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:  store,
		source: source,
		logger: logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Sync converges the membership of collectionID onto its remote folder.
// A failure on any item aborts the run; items already processed stay
// committed and a later run picks up where this one stopped.
func (s *Syncer) Sync(ctx context.Context, collectionID int64, sink Sink) (Result, error) {
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, s.logger).With(logging.Int64(logging.FieldCollectionID, collectionID))

	var result Result
	fail := func(err error) (Result, error) {
		emit(sink, Progress{State: StateFailed, Total: result.Total, Err: err})
		logging.ErrorWithContext(logger, "collection sync failed", "sync_failure",
			logging.String(logging.FieldErrorHint, "rerun sync; completed items are kept"),
			logging.Error(err),
		)
		return result, err
	}

	coll, user, err := s.owner(ctx, collectionID)
	if err != nil {
		return fail(err)
	}
	folder, err := s.remoteFolder(ctx, user, coll)
	if err != nil {
		return fail(err)
	}
	if folder.Count != coll.Count {
		if err := s.store.SetCollectionCount(ctx, coll.ID, folder.Count); err != nil {
			return fail(services.Wrap(services.ErrTransient, stageName, "count", "", err))
		}
		logger.Info("collection count refreshed",
			logging.Int("previous_count", coll.Count),
			logging.Int("remote_count", folder.Count),
		)
	}

	items, err := s.source.FolderItems(ctx, user.DiscogsUsername, coll.FolderID)
	if err != nil {
		return fail(fmt.Errorf("list folder %d: %w", coll.FolderID, err))
	}
	result.Total = len(items)
	logger.Info("collection sync started",
		logging.String(logging.FieldEventType, "sync_start"),
		logging.Int("remote_items", len(items)),
	)

	sampler := logging.NewProgressSampler(10)
	seen := make(map[int64]struct{}, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		created, linked, err := s.syncItem(ctx, coll.ID, item.ReleaseID)
		if err != nil {
			return fail(err)
		}
		if created {
			result.Created++
		}
		if linked {
			result.Linked++
		}
		seen[item.ReleaseID] = struct{}{}

		p := Progress{
			Percent: 100 * float64(i+1) / float64(len(items)),
			Synced:  i,
			Total:   len(items),
			State:   StateRunning,
		}
		emit(sink, p)
		if sampler.ShouldLog(p.Percent) {
			logger.Info("sync progress",
				logging.Float64("progress_percent", p.Percent),
				logging.Int("synced", p.Synced),
				logging.Int("total", p.Total),
			)
		}
	}

	removed, err := s.removeStale(ctx, coll.ID, seen)
	if err != nil {
		return fail(err)
	}
	result.Removed = removed

	emit(sink, Progress{Percent: 100, Synced: len(items), Total: len(items), State: StateDone})
	logger.Info("collection sync completed",
		logging.String(logging.FieldEventType, "sync_complete"),
		logging.Int("created", result.Created),
		logging.Int("linked", result.Linked),
		logging.Int64("removed", result.Removed),
	)
	return result, nil
}

func (s *Syncer) owner(ctx context.Context, collectionID int64) (*library.Collection, *library.User, error) {
	coll, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, stageName, "load collection", "", err)
	}
	if coll == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, stageName, "load collection", fmt.Sprintf("collection %d", collectionID), nil)
	}
	user, err := s.store.GetUser(ctx, coll.UserID)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, stageName, "load user", "", err)
	}
	if user == nil {
		return nil, nil, services.Wrap(services.ErrNotFound, stageName, "load user", fmt.Sprintf("user %d", coll.UserID), nil)
	}
	return coll, user, nil
}

func (s *Syncer) remoteFolder(ctx context.Context, user *library.User, coll *library.Collection) (catalog.Folder, error) {
	folders, err := s.source.Folders(ctx, user.DiscogsUsername)
	if err != nil {
		return catalog.Folder{}, fmt.Errorf("list folders: %w", err)
	}
	for _, f := range folders {
		if f.ID == coll.FolderID {
			return f, nil
		}
	}
	return catalog.Folder{}, services.Wrap(services.ErrNotFound, stageName, "resolve folder",
		fmt.Sprintf("remote folder %d for user %s", coll.FolderID, user.DiscogsUsername), nil)
}

// syncItem ingests and links one remote item in its own unit of work. The
// unit of work is rolled back instead of committed when nothing changed.
func (s *Syncer) syncItem(ctx context.Context, collectionID, sourceID int64) (created, linked bool, err error) {
	existing, err := s.store.ReleaseBySourceID(ctx, sourceID)
	if err != nil {
		return false, false, services.Wrap(services.ErrTransient, stageName, "lookup release", "", err)
	}
	var raw *catalog.RawRelease
	if existing == nil {
		if raw, err = s.source.Release(ctx, sourceID); err != nil {
			return false, false, fmt.Errorf("fetch release %d: %w", sourceID, err)
		}
	}

	err = s.store.WithTx(ctx, func(tx *library.Tx) error {
		var releaseID int64
		if existing != nil {
			releaseID = existing.ID
		} else {
			rel, err := ingest.Ingest(ctx, tx, raw, false)
			if err != nil {
				return fmt.Errorf("ingest release %d: %w", sourceID, err)
			}
			if rel == nil {
				// Another job created it after our lookup.
				found, err := tx.ReleaseBySourceID(ctx, sourceID)
				if err != nil {
					return services.Wrap(services.ErrTransient, stageName, "lookup release", "", err)
				}
				if found == nil {
					return services.Wrap(services.ErrNotFound, stageName, "lookup release", fmt.Sprintf("release %d", sourceID), nil)
				}
				releaseID = found.ID
			} else {
				releaseID = rel.ID
				created = true
			}
		}
		added, err := tx.AddMember(ctx, collectionID, releaseID)
		if err != nil {
			return services.Wrap(services.ErrTransient, stageName, "link release", "", err)
		}
		linked = added
		if !created && !linked {
			return tx.Rollback()
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return created, linked, nil
}

func (s *Syncer) removeStale(ctx context.Context, collectionID int64, seen map[int64]struct{}) (int64, error) {
	var removed int64
	err := s.store.WithTx(ctx, func(tx *library.Tx) error {
		members, err := tx.MemberSourceIDs(ctx, collectionID)
		if err != nil {
			return err
		}
		var stale []int64
		for sourceID, releaseID := range members {
			if _, ok := seen[sourceID]; !ok {
				stale = append(stale, releaseID)
			}
		}
		removed, err = tx.RemoveMembers(ctx, collectionID, stale)
		return err
	})
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, stageName, "remove stale members", "", err)
	}
	return removed, nil
}

func emit(sink Sink, p Progress) {
	if sink != nil {
		sink(p)
	}
}
