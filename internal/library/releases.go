package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	releaseColumns        = "id, source_id, master_id, title, artists_sort, year, thumb, cover_image, created_at, match_id, match_code"
	releaseColumnsAliased = "r.id, r.source_id, r.master_id, r.title, r.artists_sort, r.year, r.thumb, r.cover_image, r.created_at, r.match_id, r.match_code"
	trackColumns          = "id, release_id, position, type, title, duration, duration_seconds, match_id, match_cost"
)

func scanRelease(row scanner) (*Release, error) {
	var (
		rel        Release
		masterID   sql.NullInt64
		year       sql.NullInt64
		thumb      sql.NullString
		cover      sql.NullString
		createdRaw string
		matchID    sql.NullInt64
		matchCode  sql.NullInt64
	)
	if err := row.Scan(
		&rel.ID, &rel.SourceID, &masterID, &rel.Title, &rel.ArtistsSort, &year,
		&thumb, &cover, &createdRaw, &matchID, &matchCode,
	); err != nil {
		return nil, err
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, err
	}
	rel.MasterID = masterID.Int64
	rel.Year = int(year.Int64)
	rel.Thumb = thumb.String
	rel.CoverImage = cover.String
	rel.CreatedAt = created
	rel.MatchID = int64Ptr(matchID)
	rel.MatchCode = intPtr(matchCode)
	return &rel, nil
}

func scanReleases(rows *sql.Rows) ([]Release, error) {
	defer rows.Close()
	var out []Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		out = append(out, *rel)
	}
	return out, rows.Err()
}

func scanTrack(row scanner) (*Track, error) {
	var (
		t        Track
		duration sql.NullString
		seconds  sql.NullInt64
		matchID  sql.NullInt64
		cost     sql.NullFloat64
	)
	if err := row.Scan(&t.ID, &t.ReleaseID, &t.Position, &t.Type, &t.Title, &duration, &seconds, &matchID, &cost); err != nil {
		return nil, err
	}
	t.Duration = duration.String
	t.DurationSeconds = intPtr(seconds)
	t.MatchID = int64Ptr(matchID)
	t.MatchCost = floatPtr(cost)
	return &t, nil
}

// ReleaseBySourceID fetches a release row (without its children) by
// marketplace id; it returns nil when absent.
func (c *conn) ReleaseBySourceID(ctx context.Context, sourceID int64) (*Release, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+releaseColumns+` FROM releases WHERE source_id = ?`, sourceID)
	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("release by source id: %w", err)
	}
	return rel, nil
}

// GetRelease loads a release with its artists, formats, tracks, and match.
// It returns nil when absent.
func (c *conn) GetRelease(ctx context.Context, id int64) (*Release, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+releaseColumns+` FROM releases WHERE id = ?`, id)
	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get release: %w", err)
	}
	if rel.Artists, err = c.releaseArtists(ctx, rel.ID); err != nil {
		return nil, err
	}
	if rel.Formats, err = c.releaseFormats(ctx, rel.ID); err != nil {
		return nil, err
	}
	if rel.Tracks, err = c.Tracks(ctx, rel.ID); err != nil {
		return nil, err
	}
	if rel.MatchID != nil {
		if rel.Match, err = c.GetSecondRelease(ctx, *rel.MatchID); err != nil {
			return nil, err
		}
		attachTrackMatches(rel.Tracks, rel.Match)
	}
	return rel, nil
}

func attachTrackMatches(tracks []Track, match *SecondRelease) {
	if match == nil {
		return
	}
	byID := make(map[int64]*SecondTrack, len(match.Tracks))
	for i := range match.Tracks {
		byID[match.Tracks[i].ID] = &match.Tracks[i]
	}
	for i := range tracks {
		if tracks[i].MatchID != nil {
			tracks[i].Match = byID[*tracks[i].MatchID]
		}
	}
}

// InsertRelease stores the release row and fills in ID and CreatedAt.
func (c *conn) InsertRelease(ctx context.Context, rel *Release) error {
	if rel == nil {
		return errors.New("release is nil")
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO releases (source_id, master_id, title, artists_sort, year, thumb, cover_image, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rel.SourceID, nullableInt64(rel.MasterID), rel.Title, rel.ArtistsSort, nullableInt(rel.Year),
		nullableString(rel.Thumb), nullableString(rel.CoverImage), formatTime(rel.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert release: %w", err)
	}
	rel.ID, err = insertID(res, "release")
	return err
}

// LinkReleaseArtist credits an artist on a release at position seq.
func (c *conn) LinkReleaseArtist(ctx context.Context, releaseID, artistID int64, seq int) error {
	if _, err := c.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO release_artists (release_id, artist_id, seq) VALUES (?, ?, ?)`,
		releaseID, artistID, seq,
	); err != nil {
		return fmt.Errorf("link release artist: %w", err)
	}
	return nil
}

// InsertFormat stores a format block at position seq and fills in its ID.
func (c *conn) InsertFormat(ctx context.Context, f *Format, seq int) error {
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO formats (release_id, seq, name, quantity, note) VALUES (?, ?, ?, ?, ?)`,
		f.ReleaseID, seq, f.Name, f.Quantity, nullableString(f.Note),
	)
	if err != nil {
		return fmt.Errorf("insert format: %w", err)
	}
	f.ID, err = insertID(res, "format")
	return err
}

// LinkFormatDescription attaches a shared description to a format.
func (c *conn) LinkFormatDescription(ctx context.Context, formatID, descriptionID int64, seq int) error {
	if _, err := c.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO format_format_descriptions (format_id, description_id, seq) VALUES (?, ?, ?)`,
		formatID, descriptionID, seq,
	); err != nil {
		return fmt.Errorf("link format description: %w", err)
	}
	return nil
}

// InsertTrack stores a track at position seq and fills in its ID.
func (c *conn) InsertTrack(ctx context.Context, t *Track, seq int) error {
	var seconds any
	if t.DurationSeconds != nil {
		seconds = *t.DurationSeconds
	}
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO tracks (release_id, seq, position, type, title, duration, duration_seconds)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ReleaseID, seq, t.Position, t.Type, t.Title, nullableString(t.Duration), seconds,
	)
	if err != nil {
		return fmt.Errorf("insert track: %w", err)
	}
	t.ID, err = insertID(res, "track")
	return err
}

// Tracks lists a release's tracks in source order.
func (c *conn) Tracks(ctx context.Context, releaseID int64) ([]Track, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE release_id = ? ORDER BY seq, id`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetTrack fetches one track; it returns nil when absent.
func (c *conn) GetTrack(ctx context.Context, id int64) (*Track, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return t, nil
}

// SetReleaseMatch records the second-catalog cross-reference and its confidence code.
func (c *conn) SetReleaseMatch(ctx context.Context, releaseID, secondReleaseID int64, code int) error {
	if _, err := c.q.ExecContext(ctx,
		`UPDATE releases SET match_id = ?, match_code = ? WHERE id = ?`,
		secondReleaseID, code, releaseID,
	); err != nil {
		return fmt.Errorf("set release match: %w", err)
	}
	return nil
}

// ClearTrackMatches drops every track-level cross-reference of a release.
func (c *conn) ClearTrackMatches(ctx context.Context, releaseID int64) error {
	if _, err := c.q.ExecContext(ctx,
		`UPDATE tracks SET match_id = NULL, match_cost = NULL WHERE release_id = ?`, releaseID,
	); err != nil {
		return fmt.Errorf("clear track matches: %w", err)
	}
	return nil
}

// SetTrackMatch links a track to a second-catalog track with the realized cost.
func (c *conn) SetTrackMatch(ctx context.Context, trackID, secondTrackID int64, cost float64) error {
	if _, err := c.q.ExecContext(ctx,
		`UPDATE tracks SET match_id = ?, match_cost = ? WHERE id = ?`,
		secondTrackID, cost, trackID,
	); err != nil {
		return fmt.Errorf("set track match: %w", err)
	}
	return nil
}

// DeleteRelease removes a release; tracks, formats, and memberships cascade.
func (c *conn) DeleteRelease(ctx context.Context, id int64) error {
	if _, err := c.q.ExecContext(ctx, `DELETE FROM releases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete release: %w", err)
	}
	return nil
}

// Counts summarizes the number of rows in the main tables.
func (c *conn) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	err := c.q.QueryRowContext(ctx, `SELECT
        (SELECT COUNT(1) FROM releases),
        (SELECT COUNT(1) FROM tracks),
        (SELECT COUNT(1) FROM artists),
        (SELECT COUNT(1) FROM format_descriptions),
        (SELECT COUNT(1) FROM second_releases),
        (SELECT COUNT(1) FROM collections)`,
	).Scan(&out.Releases, &out.Tracks, &out.Artists, &out.FormatDescriptions, &out.SecondReleases, &out.Collections)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return out, nil
}

func (c *conn) releaseArtists(ctx context.Context, releaseID int64) ([]Artist, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+artistColumnsAliased+` FROM artists a
         JOIN release_artists ra ON ra.artist_id = a.id
         WHERE ra.release_id = ? ORDER BY ra.seq`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list release artists: %w", err)
	}
	defer rows.Close()

	var out []Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (c *conn) releaseFormats(ctx context.Context, releaseID int64) ([]Format, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT id, release_id, name, quantity, note FROM formats WHERE release_id = ? ORDER BY seq, id`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list formats: %w", err)
	}
	var formats []Format
	for rows.Next() {
		var (
			f    Format
			note sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.ReleaseID, &f.Name, &f.Quantity, &note); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan format: %w", err)
		}
		f.Note = note.String
		formats = append(formats, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range formats {
		if formats[i].Descriptions, err = c.formatDescriptions(ctx, formats[i].ID); err != nil {
			return nil, err
		}
	}
	return formats, nil
}

func (c *conn) formatDescriptions(ctx context.Context, formatID int64) ([]FormatDescription, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT d.id, d.text FROM format_descriptions d
         JOIN format_format_descriptions fd ON fd.description_id = d.id
         WHERE fd.format_id = ? ORDER BY fd.seq`, formatID)
	if err != nil {
		return nil, fmt.Errorf("list format descriptions: %w", err)
	}
	defer rows.Close()

	var out []FormatDescription
	for rows.Next() {
		var d FormatDescription
		if err := rows.Scan(&d.ID, &d.Text); err != nil {
			return nil, fmt.Errorf("scan format description: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
