package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"platter/internal/services"
)

const collectionColumns = "id, user_id, folder_id, name, item_count, resource_url"

// Ordering selects how collection releases are listed.
type Ordering struct {
	Field string
	Desc  bool
}

var orderingColumns = map[string]string{
	"title":        "r.title",
	"id":           "r.id",
	"artists_sort": "r.artists_sort",
	"year":         "r.year",
	"created_at":   "r.created_at",
}

// OrderingFields lists the accepted ordering field names.
func OrderingFields() []string {
	return []string{"title", "id", "artists_sort", "year", "created_at"}
}

// ParseOrdering validates a field and direction pair such as ("year", "desc").
// An empty field orders by title ascending.
func ParseOrdering(field, direction string) (Ordering, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if field == "" {
		field = "title"
	}
	if _, ok := orderingColumns[field]; !ok {
		return Ordering{}, services.NewValidationError("order", fmt.Sprintf("unsupported field %q", field))
	}
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc":
		return Ordering{Field: field}, nil
	case "desc":
		return Ordering{Field: field, Desc: true}, nil
	default:
		return Ordering{}, services.NewValidationError("direction", fmt.Sprintf("unsupported direction %q", direction))
	}
}

func (o Ordering) clause() string {
	column, ok := orderingColumns[o.Field]
	if !ok {
		column = orderingColumns["title"]
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, r.id ASC", column, dir)
}

func scanCollection(row scanner) (*Collection, error) {
	var (
		c           Collection
		resourceURL sql.NullString
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.FolderID, &c.Name, &c.Count, &resourceURL); err != nil {
		return nil, err
	}
	c.ResourceURL = resourceURL.String
	return &c, nil
}

// UpsertCollection creates or refreshes the collection keyed by (user, folder).
// It fills in coll.ID and reports whether a row was created.
func (c *conn) UpsertCollection(ctx context.Context, coll *Collection) (bool, error) {
	if coll == nil {
		return false, errors.New("collection is nil")
	}
	var id int64
	err := c.q.QueryRowContext(ctx,
		`SELECT id FROM collections WHERE user_id = ? AND folder_id = ?`,
		coll.UserID, coll.FolderID,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := c.q.ExecContext(ctx,
			`INSERT INTO collections (user_id, folder_id, name, item_count, resource_url) VALUES (?, ?, ?, ?, ?)`,
			coll.UserID, coll.FolderID, coll.Name, coll.Count, nullableString(coll.ResourceURL),
		)
		if err != nil {
			return false, fmt.Errorf("insert collection: %w", err)
		}
		if coll.ID, err = insertID(res, "collection"); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("lookup collection: %w", err)
	}

	coll.ID = id
	if _, err := c.q.ExecContext(ctx,
		`UPDATE collections SET name = ?, item_count = ?, resource_url = ? WHERE id = ?`,
		coll.Name, coll.Count, nullableString(coll.ResourceURL), id,
	); err != nil {
		return false, fmt.Errorf("update collection: %w", err)
	}
	return false, nil
}

// GetCollection fetches a collection by id; it returns nil when absent.
func (c *conn) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	coll, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return coll, nil
}

// ListCollections returns a user's collections ordered by folder id.
func (c *conn) ListCollections(ctx context.Context, userID int64) ([]Collection, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE user_id = ? ORDER BY folder_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		coll, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, *coll)
	}
	return out, rows.Err()
}

// SetCollectionCount updates the cached remote item count.
func (c *conn) SetCollectionCount(ctx context.Context, id int64, count int) error {
	if _, err := c.q.ExecContext(ctx, `UPDATE collections SET item_count = ? WHERE id = ?`, count, id); err != nil {
		return fmt.Errorf("update collection count: %w", err)
	}
	return nil
}

// AddMember links a release into a collection. It reports false when the
// link already existed.
func (c *conn) AddMember(ctx context.Context, collectionID, releaseID int64) (bool, error) {
	res, err := c.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO collection_releases (collection_id, release_id, added_at) VALUES (?, ?, ?)`,
		collectionID, releaseID, formatTime(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("add collection member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add collection member rows: %w", err)
	}
	return n > 0, nil
}

// IsMember reports whether a release belongs to a collection.
func (c *conn) IsMember(ctx context.Context, collectionID, releaseID int64) (bool, error) {
	var n int
	err := c.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM collection_releases WHERE collection_id = ? AND release_id = ?`,
		collectionID, releaseID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check collection member: %w", err)
	}
	return n > 0, nil
}

// MemberSourceIDs maps the marketplace id of every member release to its local id.
func (c *conn) MemberSourceIDs(ctx context.Context, collectionID int64) (map[int64]int64, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT r.source_id, r.id FROM releases r
         JOIN collection_releases cr ON cr.release_id = r.id
         WHERE cr.collection_id = ?`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list member source ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var sourceID, id int64
		if err := rows.Scan(&sourceID, &id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out[sourceID] = id
	}
	return out, rows.Err()
}

// RemoveMembers unlinks releases from a collection without deleting them.
func (c *conn) RemoveMembers(ctx context.Context, collectionID int64, releaseIDs []int64) (int64, error) {
	if len(releaseIDs) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(releaseIDs)+1)
	args = append(args, collectionID)
	for _, id := range releaseIDs {
		args = append(args, id)
	}
	res, err := c.q.ExecContext(ctx,
		`DELETE FROM collection_releases WHERE collection_id = ? AND release_id IN (`+makePlaceholders(len(releaseIDs))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("remove collection members: %w", err)
	}
	return res.RowsAffected()
}

// CollectionReleases lists member releases with their artists, in the given order.
func (c *conn) CollectionReleases(ctx context.Context, collectionID int64, order Ordering) ([]Release, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+releaseColumnsAliased+` FROM releases r
         JOIN collection_releases cr ON cr.release_id = r.id
         WHERE cr.collection_id = ?
         ORDER BY `+order.clause(), collectionID)
	if err != nil {
		return nil, fmt.Errorf("list collection releases: %w", err)
	}
	releases, err := scanReleases(rows)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].Artists, err = c.releaseArtists(ctx, releases[i].ID); err != nil {
			return nil, err
		}
	}
	return releases, nil
}

// UnmatchedReleaseIDs lists member releases with no second-catalog match.
func (c *conn) UnmatchedReleaseIDs(ctx context.Context, collectionID int64) ([]int64, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT r.id FROM releases r
         JOIN collection_releases cr ON cr.release_id = r.id
         WHERE cr.collection_id = ? AND r.match_id IS NULL
         ORDER BY r.id`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list unmatched releases: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan release id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
