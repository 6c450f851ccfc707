package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"platter/internal/catalog"
	"platter/internal/library"
	"platter/internal/resolver"
	"platter/internal/services"
)

// TrackType is the only tracklist entry type materialized as a Track.
const TrackType = "track"

var disambiguatorPattern = regexp.MustCompile(` \(\d+\)$`)

// Ingest stages raw as a new release in tx. It returns nil without error when a
// release with the same source id already exists. When commit is true the
// unit of work is committed before returning; otherwise the caller decides.
func Ingest(ctx context.Context, tx *library.Tx, raw *catalog.RawRelease, commit bool) (*library.Release, error) {
	if raw == nil {
		return nil, services.NewValidationError("release", "")
	}
	normalized := normalize(*raw)
	if err := validate(normalized); err != nil {
		return nil, err
	}

	existing, err := tx.ReleaseBySourceID(ctx, normalized.ID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "lookup", "", err)
	}
	if existing != nil {
		return nil, nil
	}

	rel, err := stage(ctx, tx, normalized)
	if err != nil {
		return nil, err
	}
	if commit {
		if err := tx.Commit(); err != nil {
			return nil, services.Wrap(services.ErrTransient, "ingest", "commit", "", err)
		}
	}
	return rel, nil
}

func stage(ctx context.Context, tx *library.Tx, raw catalog.RawRelease) (*library.Release, error) {
	rel := &library.Release{
		SourceID:    raw.ID,
		MasterID:    raw.MasterID,
		Title:       raw.Title,
		ArtistsSort: raw.ArtistsSort,
		Year:        raw.Year,
		Thumb:       raw.Thumb,
		CoverImage:  raw.CoverImage,
	}
	if err := tx.InsertRelease(ctx, rel); err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "release", "", err)
	}

	for i, a := range raw.Artists {
		artist, _, err := resolver.Resolve(ctx, tx, resolver.Artist, library.Artist{
			SourceID:     a.ID,
			Name:         a.Name,
			ResourceURL:  a.ResourceURL,
			ThumbnailURL: a.ThumbnailURL,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "ingest", "artist", "", err)
		}
		if err := tx.LinkReleaseArtist(ctx, rel.ID, artist.ID, i); err != nil {
			return nil, services.Wrap(services.ErrTransient, "ingest", "artist", "", err)
		}
		rel.Artists = append(rel.Artists, artist)
	}

	for i, f := range raw.Formats {
		qty, _ := strconv.Atoi(f.Quantity)
		format := library.Format{ReleaseID: rel.ID, Name: f.Name, Quantity: qty, Note: f.Text}
		if err := tx.InsertFormat(ctx, &format, i); err != nil {
			return nil, services.Wrap(services.ErrTransient, "ingest", "format", "", err)
		}
		for j, text := range f.Descriptions {
			if text == "" {
				continue
			}
			desc, _, err := resolver.Resolve(ctx, tx, resolver.FormatDescription, library.FormatDescription{Text: text})
			if err != nil {
				return nil, services.Wrap(services.ErrTransient, "ingest", "format description", "", err)
			}
			if err := tx.LinkFormatDescription(ctx, format.ID, desc.ID, j); err != nil {
				return nil, services.Wrap(services.ErrTransient, "ingest", "format description", "", err)
			}
			format.Descriptions = append(format.Descriptions, desc)
		}
		rel.Formats = append(rel.Formats, format)
	}

	seq := 0
	for _, t := range raw.Tracklist {
		if t.Type != TrackType {
			continue
		}
		track := library.Track{
			ReleaseID:       rel.ID,
			Position:        t.Position,
			Type:            t.Type,
			Title:           t.Title,
			Duration:        t.Duration,
			DurationSeconds: ParseDuration(t.Duration),
		}
		if err := tx.InsertTrack(ctx, &track, seq); err != nil {
			return nil, services.Wrap(services.ErrTransient, "ingest", "track", "", err)
		}
		seq++
		rel.Tracks = append(rel.Tracks, track)
	}
	return rel, nil
}

// normalize trims every string field and strips the numeric disambiguator
// the marketplace appends to duplicate artist names, e.g. "Artist (2)".
func normalize(raw catalog.RawRelease) catalog.RawRelease {
	out := raw
	out.Title = strings.TrimSpace(raw.Title)
	out.ArtistsSort = CleanName(raw.ArtistsSort)
	out.Thumb = strings.TrimSpace(raw.Thumb)
	out.CoverImage = strings.TrimSpace(raw.CoverImage)
	out.ResourceURL = strings.TrimSpace(raw.ResourceURL)

	out.Artists = make([]catalog.RawArtist, len(raw.Artists))
	for i, a := range raw.Artists {
		out.Artists[i] = catalog.RawArtist{
			ID:           a.ID,
			Name:         CleanName(a.Name),
			ResourceURL:  strings.TrimSpace(a.ResourceURL),
			ThumbnailURL: strings.TrimSpace(a.ThumbnailURL),
		}
	}
	out.Formats = make([]catalog.RawFormat, len(raw.Formats))
	for i, f := range raw.Formats {
		descs := make([]string, 0, len(f.Descriptions))
		for _, d := range f.Descriptions {
			descs = append(descs, strings.TrimSpace(d))
		}
		out.Formats[i] = catalog.RawFormat{
			Name:         strings.TrimSpace(f.Name),
			Quantity:     strings.TrimSpace(f.Quantity),
			Text:         strings.TrimSpace(f.Text),
			Descriptions: descs,
		}
	}
	out.Tracklist = make([]catalog.RawTrack, len(raw.Tracklist))
	for i, t := range raw.Tracklist {
		out.Tracklist[i] = catalog.RawTrack{
			Position: strings.TrimSpace(t.Position),
			Type:     strings.TrimSpace(t.Type),
			Title:    strings.TrimSpace(t.Title),
			Duration: strings.TrimSpace(t.Duration),
		}
	}
	return out
}

func validate(raw catalog.RawRelease) error {
	if raw.ID <= 0 {
		return services.NewValidationError("id", "must be a positive marketplace id")
	}
	if raw.Title == "" {
		return services.NewValidationError("title", "")
	}
	for i, a := range raw.Artists {
		if a.ID <= 0 {
			return services.NewValidationError(fmt.Sprintf("artists[%d].id", i), "must be a positive marketplace id")
		}
		if a.Name == "" {
			return services.NewValidationError(fmt.Sprintf("artists[%d].name", i), "")
		}
	}
	for i, f := range raw.Formats {
		if f.Name == "" {
			return services.NewValidationError(fmt.Sprintf("formats[%d].name", i), "")
		}
		// Zero is stored as declared; it contributes no discs.
		if _, err := strconv.Atoi(f.Quantity); err != nil {
			return services.NewValidationError(fmt.Sprintf("formats[%d].qty", i), fmt.Sprintf("invalid quantity %q", f.Quantity))
		}
	}
	for i, t := range raw.Tracklist {
		if t.Type == TrackType && t.Title == "" {
			return services.NewValidationError(fmt.Sprintf("tracklist[%d].title", i), "")
		}
	}
	return nil
}

// CleanName trims s and removes a trailing " (N)" disambiguator.
func CleanName(s string) string {
	return disambiguatorPattern.ReplaceAllString(strings.TrimSpace(s), "")
}

var durationPattern = regexp.MustCompile(`^(?:(\d+):)?(\d+):([0-5]\d)$`)

// ParseDuration converts "M:SS" (or "H:MM:SS") into seconds. Anything else
// yields nil.
func ParseDuration(s string) *int {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	total := hours*3600 + minutes*60 + seconds
	return &total
}
