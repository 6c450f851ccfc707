package align

import (
	"context"
	"fmt"
	"log/slog"

	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
)

// Assignment links one local track to one second-catalog track.
type Assignment struct {
	TrackID       int64
	SecondTrackID int64
	Cost          float64
}

// Result summarizes one alignment run.
type Result struct {
	Assignments []Assignment
	Unmatched   int
}

// Aligner writes track-level cross-references for matched releases.
type Aligner struct {
	policy Policy
	logger *slog.Logger
}

// New constructs an Aligner.
func New(policy Policy, logger *slog.Logger) *Aligner {
	return &Aligner{policy: policy.normalized(), logger: logging.NewComponentLogger(logger, "align")}
}

// Align replaces the track cross-references of releaseID inside tx. It fails
// with services.ErrNotMatched when the release has no second-catalog match.
func (a *Aligner) Align(ctx context.Context, tx *library.Tx, releaseID int64) (Result, error) {
	rel, err := tx.GetRelease(ctx, releaseID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "align", "load release", "", err)
	}
	if rel == nil {
		return Result{}, services.Wrap(services.ErrNotFound, "align", "load release", fmt.Sprintf("release %d", releaseID), nil)
	}
	if rel.MatchID == nil || rel.Match == nil {
		return Result{}, services.Wrap(services.ErrNotMatched, "align", "precondition", fmt.Sprintf("release %d", releaseID), nil)
	}

	if err := tx.ClearTrackMatches(ctx, rel.ID); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "align", "clear", "", err)
	}

	local, remote := rel.Tracks, rel.Match.Tracks
	pairs := Solve(a.costMatrix(local, remote))
	result := Result{Assignments: make([]Assignment, 0, len(pairs))}
	for _, p := range pairs {
		asg := Assignment{TrackID: local[p.Row].ID, SecondTrackID: remote[p.Col].ID, Cost: p.Cost}
		if err := tx.SetTrackMatch(ctx, asg.TrackID, asg.SecondTrackID, asg.Cost); err != nil {
			return Result{}, services.Wrap(services.ErrTransient, "align", "store", "", err)
		}
		result.Assignments = append(result.Assignments, asg)
	}
	result.Unmatched = len(local) - len(result.Assignments)

	logging.WithContext(ctx, a.logger).Info("tracks aligned",
		logging.Int64(logging.FieldReleaseID, rel.ID),
		logging.Int("local_tracks", len(local)),
		logging.Int("remote_tracks", len(remote)),
		logging.Int("matched", len(result.Assignments)),
		logging.Int("unmatched", result.Unmatched),
	)
	return result, nil
}

// AlignRelease runs Align in its own unit of work.
func (a *Aligner) AlignRelease(ctx context.Context, store *library.Store, releaseID int64) (Result, error) {
	var result Result
	err := store.WithTx(ctx, func(tx *library.Tx) error {
		var err error
		result, err = a.Align(ctx, tx, releaseID)
		return err
	})
	return result, err
}

func (a *Aligner) costMatrix(local []library.Track, remote []library.SecondTrack) [][]float64 {
	if len(local) == 0 || len(remote) == 0 {
		return nil
	}
	cost := make([][]float64, len(local))
	for i, t := range local {
		cost[i] = make([]float64, len(remote))
		for j, r := range remote {
			cost[i][j] = a.policy.Cost(t.Title, t.Position, r.Title, r.Position)
		}
	}
	return cost
}
