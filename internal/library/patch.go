package library

import (
	"context"
	"fmt"
)

// Patchable columns per table. Callers validate field names against their own
// whitelist; these sets keep the SQL layer from interpolating anything else.
var (
	releasePatchColumns = map[string]bool{"title": true, "year": true, "artists_sort": true, "master_id": true}
	trackPatchColumns   = map[string]bool{"title": true, "position": true, "duration": true, "duration_seconds": true}
)

// UpdateReleaseColumn sets one whitelisted release column. It reports false
// when no release has the id.
func (c *conn) UpdateReleaseColumn(ctx context.Context, id int64, column string, value any) (bool, error) {
	if !releasePatchColumns[column] {
		return false, fmt.Errorf("release column %q is not patchable", column)
	}
	return c.updateColumn(ctx, "releases", id, column, value)
}

// UpdateTrackColumn sets one whitelisted track column. It reports false when
// no track has the id.
func (c *conn) UpdateTrackColumn(ctx context.Context, id int64, column string, value any) (bool, error) {
	if !trackPatchColumns[column] {
		return false, fmt.Errorf("track column %q is not patchable", column)
	}
	return c.updateColumn(ctx, "tracks", id, column, value)
}

func (c *conn) updateColumn(ctx context.Context, table string, id int64, column string, value any) (bool, error) {
	res, err := c.q.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`, table, column), value, id)
	if err != nil {
		return false, fmt.Errorf("update %s.%s: %w", table, column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s.%s rows: %w", table, column, err)
	}
	return n > 0, nil
}
