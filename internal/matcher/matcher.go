package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"platter/internal/align"
	"platter/internal/catalog"
	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/resolver"
	"platter/internal/services"
)

// SecondCatalog is the slice of the metadata catalog client the matcher uses.
type SecondCatalog interface {
	ReleasesForURL(ctx context.Context, resource string) ([]string, error)
	Search(ctx context.Context, q catalog.SearchQuery) ([]catalog.Candidate, error)
	Release(ctx context.Context, id string) (*catalog.SecondRelease, error)
}

// Outcome reports what Match did for one release.
type Outcome struct {
	ReleaseID int64
	Matched   bool
	Match     Match
	Alignment align.Result
}

// BatchResult summarizes MatchCollection.
type BatchResult struct {
	Total     int
	Matched   int
	Unmatched int
	Failed    int
}

// Matcher finds and records second-catalog matches.
type Matcher struct {
	store   *library.Store
	catalog SecondCatalog
	aligner *align.Aligner
	policy  Policy
	logger  *slog.Logger
}

// New constructs a Matcher. The catalog handle is scoped to the caller's job.
func New(store *library.Store, cat SecondCatalog, aligner *align.Aligner, policy Policy, logger *slog.Logger) *Matcher {
	return &Matcher{
		store:   store,
		catalog: cat,
		aligner: aligner,
		policy:  policy.normalized(),
		logger:  logging.NewComponentLogger(logger, "matcher"),
	}
}

// Match finds a second-catalog counterpart for releaseID and, when one is
// found, stores it, links the release, and aligns its tracks atomically.
func (m *Matcher) Match(ctx context.Context, releaseID int64) (Outcome, error) {
	ctx = services.WithStage(ctx, "match")
	out := Outcome{ReleaseID: releaseID}

	rel, err := m.store.GetRelease(ctx, releaseID)
	if err != nil {
		return out, services.Wrap(services.ErrTransient, "match", "load release", "", err)
	}
	if rel == nil {
		return out, services.Wrap(services.ErrNotFound, "match", "load release", fmt.Sprintf("release %d", releaseID), nil)
	}

	match, ok, err := m.FindMatch(ctx, rel)
	if err != nil || !ok {
		return out, err
	}
	remote, err := m.catalog.Release(ctx, match.ExternalID)
	if err != nil {
		return out, fmt.Errorf("fetch second-catalog release %s: %w", match.ExternalID, err)
	}

	err = m.store.WithTx(ctx, func(tx *library.Tx) error {
		second, err := m.stageSecondRelease(ctx, tx, remote)
		if err != nil {
			return err
		}
		if err := tx.SetReleaseMatch(ctx, rel.ID, second.ID, match.Code); err != nil {
			return services.Wrap(services.ErrTransient, "match", "link release", "", err)
		}
		out.Alignment, err = m.aligner.Align(ctx, tx, rel.ID)
		return err
	})
	if err != nil {
		return out, err
	}
	out.Matched = true
	out.Match = match
	return out, nil
}

func (m *Matcher) stageSecondRelease(ctx context.Context, tx *library.Tx, remote *catalog.SecondRelease) (library.SecondRelease, error) {
	second, _, err := resolver.Resolve(ctx, tx, resolver.SecondRelease, library.SecondRelease{
		MBID:  remote.ID,
		Title: remote.Title,
	})
	if err != nil {
		return library.SecondRelease{}, services.Wrap(services.ErrTransient, "match", "stage release", "", err)
	}
	for i, t := range remote.Tracks {
		if _, _, err := resolver.Resolve(ctx, tx, resolver.SecondTrack(i), library.SecondTrack{
			SecondReleaseID: second.ID,
			MBID:            t.ID,
			Title:           t.Title,
			Position:        t.Position,
			Number:          t.Number,
			Duration:        t.Duration,
			RecordingID:     t.RecordingID,
		}); err != nil {
			return library.SecondRelease{}, services.Wrap(services.ErrTransient, "match", "stage track", "", err)
		}
	}
	return second, nil
}

// MatchCollection matches every unmatched release of a collection, each in
// its own unit of work. A failed release is logged and counted; the batch
// continues unless ctx is cancelled.
func (m *Matcher) MatchCollection(ctx context.Context, collectionID int64) (BatchResult, error) {
	coll, err := m.store.GetCollection(ctx, collectionID)
	if err != nil {
		return BatchResult{}, services.Wrap(services.ErrTransient, "match", "load collection", "", err)
	}
	if coll == nil {
		return BatchResult{}, services.Wrap(services.ErrNotFound, "match", "load collection", fmt.Sprintf("collection %d", collectionID), nil)
	}
	ids, err := m.store.UnmatchedReleaseIDs(ctx, collectionID)
	if err != nil {
		return BatchResult{}, services.Wrap(services.ErrTransient, "match", "list unmatched", "", err)
	}

	logger := logging.WithContext(ctx, m.logger).With(logging.Int64(logging.FieldCollectionID, collectionID))
	result := BatchResult{Total: len(ids)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.policy.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := m.Match(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				result.Failed++
				logging.ErrorWithContext(logger, "release match failed", "match_failure",
					logging.Int64(logging.FieldReleaseID, id),
					logging.String("failure_kind", services.FailureKind(err)),
					logging.Error(err),
				)
			case outcome.Matched:
				result.Matched++
			default:
				result.Unmatched++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	logger.Info("collection match completed",
		logging.String(logging.FieldEventType, "match_complete"),
		logging.Int("total", result.Total),
		logging.Int("matched", result.Matched),
		logging.Int("unmatched", result.Unmatched),
		logging.Int("failed", result.Failed),
	)
	return result, nil
}
