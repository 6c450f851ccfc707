package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	artistColumns        = "id, source_id, name, resource_url, thumbnail_url"
	artistColumnsAliased = "a.id, a.source_id, a.name, a.resource_url, a.thumbnail_url"
	secondTrackColumns   = "id, second_release_id, mbid, title, position, number, duration, recording_id"
)

func scanArtist(row scanner) (*Artist, error) {
	var (
		a        Artist
		resource sql.NullString
		thumb    sql.NullString
	)
	if err := row.Scan(&a.ID, &a.SourceID, &a.Name, &resource, &thumb); err != nil {
		return nil, err
	}
	a.ResourceURL = resource.String
	a.ThumbnailURL = thumb.String
	return &a, nil
}

func scanSecondTrack(row scanner) (*SecondTrack, error) {
	var (
		t        SecondTrack
		position sql.NullString
		number   sql.NullInt64
		duration sql.NullString
		record   sql.NullString
	)
	if err := row.Scan(&t.ID, &t.SecondReleaseID, &t.MBID, &t.Title, &position, &number, &duration, &record); err != nil {
		return nil, err
	}
	t.Position = position.String
	t.Number = int(number.Int64)
	t.Duration = duration.String
	t.RecordingID = record.String
	return &t, nil
}

// ArtistBySourceID returns the artist with the given marketplace id, or nil.
func (c *conn) ArtistBySourceID(ctx context.Context, sourceID int64) (*Artist, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE source_id = ?`, sourceID)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artist by source id: %w", err)
	}
	return a, nil
}

// InsertArtist stores a new artist and fills in its ID.
func (c *conn) InsertArtist(ctx context.Context, a *Artist) error {
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO artists (source_id, name, resource_url, thumbnail_url) VALUES (?, ?, ?, ?)`,
		a.SourceID, a.Name, nullableString(a.ResourceURL), nullableString(a.ThumbnailURL),
	)
	if err != nil {
		return fmt.Errorf("insert artist: %w", err)
	}
	a.ID, err = insertID(res, "artist")
	return err
}

// FormatDescriptionByText returns the description with the given text, or nil.
func (c *conn) FormatDescriptionByText(ctx context.Context, text string) (*FormatDescription, error) {
	var d FormatDescription
	err := c.q.QueryRowContext(ctx, `SELECT id, text FROM format_descriptions WHERE text = ?`, text).Scan(&d.ID, &d.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("format description by text: %w", err)
	}
	return &d, nil
}

// InsertFormatDescription stores a new description and fills in its ID.
func (c *conn) InsertFormatDescription(ctx context.Context, d *FormatDescription) error {
	res, err := c.q.ExecContext(ctx, `INSERT INTO format_descriptions (text) VALUES (?)`, d.Text)
	if err != nil {
		return fmt.Errorf("insert format description: %w", err)
	}
	d.ID, err = insertID(res, "format description")
	return err
}

// SecondReleaseByMBID returns the cached second-catalog release, or nil.
// Tracks are not loaded.
func (c *conn) SecondReleaseByMBID(ctx context.Context, mbid string) (*SecondRelease, error) {
	var r SecondRelease
	err := c.q.QueryRowContext(ctx, `SELECT id, mbid, title FROM second_releases WHERE mbid = ?`, mbid).
		Scan(&r.ID, &r.MBID, &r.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("second release by mbid: %w", err)
	}
	return &r, nil
}

// GetSecondRelease loads a cached second-catalog release with its tracks.
func (c *conn) GetSecondRelease(ctx context.Context, id int64) (*SecondRelease, error) {
	var r SecondRelease
	err := c.q.QueryRowContext(ctx, `SELECT id, mbid, title FROM second_releases WHERE id = ?`, id).
		Scan(&r.ID, &r.MBID, &r.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get second release: %w", err)
	}
	if r.Tracks, err = c.SecondTracks(ctx, r.ID); err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertSecondRelease stores a new second-catalog release and fills in its ID.
func (c *conn) InsertSecondRelease(ctx context.Context, r *SecondRelease) error {
	res, err := c.q.ExecContext(ctx, `INSERT INTO second_releases (mbid, title) VALUES (?, ?)`, r.MBID, r.Title)
	if err != nil {
		return fmt.Errorf("insert second release: %w", err)
	}
	r.ID, err = insertID(res, "second release")
	return err
}

// SecondTrackByMBID returns the cached second-catalog track, or nil.
func (c *conn) SecondTrackByMBID(ctx context.Context, mbid string) (*SecondTrack, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+secondTrackColumns+` FROM second_tracks WHERE mbid = ?`, mbid)
	t, err := scanSecondTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("second track by mbid: %w", err)
	}
	return t, nil
}

// InsertSecondTrack stores a new second-catalog track at position seq.
func (c *conn) InsertSecondTrack(ctx context.Context, t *SecondTrack, seq int) error {
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO second_tracks (second_release_id, seq, mbid, title, position, number, duration, recording_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SecondReleaseID, seq, t.MBID, t.Title, nullableString(t.Position), nullableInt(t.Number),
		nullableString(t.Duration), nullableString(t.RecordingID),
	)
	if err != nil {
		return fmt.Errorf("insert second track: %w", err)
	}
	t.ID, err = insertID(res, "second track")
	return err
}

// SecondTracks lists a cached second-catalog release's tracks in medium order.
func (c *conn) SecondTracks(ctx context.Context, secondReleaseID int64) ([]SecondTrack, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT `+secondTrackColumns+` FROM second_tracks WHERE second_release_id = ? ORDER BY seq, id`,
		secondReleaseID)
	if err != nil {
		return nil, fmt.Errorf("list second tracks: %w", err)
	}
	defer rows.Close()

	var out []SecondTrack
	for rows.Next() {
		t, err := scanSecondTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan second track: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
