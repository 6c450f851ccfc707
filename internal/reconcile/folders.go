package reconcile

import (
	"context"
	"fmt"

	"platter/internal/library"
	"platter/internal/logging"
	"platter/internal/services"
)

// SyncFolders mirrors a user's remote folders into local collections keyed by
// (user, folder id), refreshing names and counts of ones already known.
// Local collections whose folder vanished upstream are left untouched.
func (s *Syncer) SyncFolders(ctx context.Context, userID int64) ([]library.Collection, error) {
	ctx = services.WithStage(ctx, "folders")
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "folders", "load user", "", err)
	}
	if user == nil {
		return nil, services.Wrap(services.ErrNotFound, "folders", "load user", fmt.Sprintf("user %d", userID), nil)
	}
	folders, err := s.source.Folders(ctx, user.DiscogsUsername)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	out := make([]library.Collection, 0, len(folders))
	created := 0
	err = s.store.WithTx(ctx, func(tx *library.Tx) error {
		for _, f := range folders {
			coll := library.Collection{
				UserID:      user.ID,
				FolderID:    f.ID,
				Name:        f.Name,
				Count:       f.Count,
				ResourceURL: f.ResourceURL,
			}
			isNew, err := tx.UpsertCollection(ctx, &coll)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
			out = append(out, coll)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "folders", "upsert collections", "", err)
	}

	logging.WithContext(ctx, s.logger).Info("folders synced",
		logging.String("user", user.Name),
		logging.Int("folders", len(folders)),
		logging.Int("created", created),
	)
	return out, nil
}
