package main

import (
	"time"

	"platter/internal/discs"
	"platter/internal/library"
)

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func userView(u library.User) map[string]any {
	return map[string]any{
		"id":               u.ID,
		"name":             u.Name,
		"discogs_username": u.DiscogsUsername,
		"created_at":       formatTimestamp(u.CreatedAt),
	}
}

func collectionView(c library.Collection) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"user_id":      c.UserID,
		"folder_id":    c.FolderID,
		"name":         c.Name,
		"count":        c.Count,
		"resource_url": c.ResourceURL,
	}
}

// releaseSummaryView is the listing shape; it omits formats and tracks.
func releaseSummaryView(r library.Release) map[string]any {
	return map[string]any{
		"id":           r.ID,
		"source_id":    r.SourceID,
		"master_id":    r.MasterID,
		"title":        r.Title,
		"artist":       r.PrimaryArtist(),
		"artists_sort": r.ArtistsSort,
		"year":         r.Year,
		"match_code":   r.MatchCode,
		"source_url":   r.SourceURL(),
		"created_at":   formatTimestamp(r.CreatedAt),
	}
}

func releaseView(r *library.Release) map[string]any {
	view := releaseSummaryView(*r)
	view["thumb"] = r.Thumb
	view["cover_image"] = r.CoverImage
	view["disc_count"] = r.DiscCount()

	artists := make([]map[string]any, 0, len(r.Artists))
	for _, a := range r.Artists {
		artists = append(artists, map[string]any{
			"id":            a.ID,
			"source_id":     a.SourceID,
			"name":          a.Name,
			"resource_url":  a.ResourceURL,
			"thumbnail_url": a.ThumbnailURL,
		})
	}
	view["artists"] = artists

	formats := make([]map[string]any, 0, len(r.Formats))
	for i := range r.Formats {
		formats = append(formats, formatView(&r.Formats[i]))
	}
	view["formats"] = formats

	if r.Match != nil {
		view["match"] = map[string]any{
			"id":    r.Match.ID,
			"mbid":  r.Match.MBID,
			"title": r.Match.Title,
			"url":   r.MatchURL(),
		}
	} else {
		view["match"] = nil
	}

	assigned := discs.Assign(r)
	discViews := make([]map[string]any, 0, len(assigned))
	for _, d := range assigned {
		tracks := make([]map[string]any, 0, len(d.Tracks))
		for _, t := range d.Tracks {
			tracks = append(tracks, trackView(t))
		}
		var format map[string]any
		if d.Format != nil {
			format = formatView(d.Format)
		}
		discViews = append(discViews, map[string]any{
			"id":     d.ID,
			"vinyl":  d.Vinyl,
			"format": format,
			"tracks": tracks,
		})
	}
	view["discs"] = discViews
	return view
}

func formatView(f *library.Format) map[string]any {
	descriptions := make([]string, 0, len(f.Descriptions))
	for _, d := range f.Descriptions {
		descriptions = append(descriptions, d.Text)
	}
	return map[string]any{
		"id":           f.ID,
		"name":         f.Name,
		"qty":          f.Quantity,
		"text":         f.Note,
		"descriptions": descriptions,
	}
}

func trackView(t library.Track) map[string]any {
	view := map[string]any{
		"id":               t.ID,
		"position":         t.Position,
		"type":             t.Type,
		"title":            t.Title,
		"duration":         t.DisplayDuration(),
		"duration_seconds": t.DurationSeconds,
		"match_cost":       t.MatchCost,
		"match":            nil,
	}
	if t.Match != nil {
		view["match"] = map[string]any{
			"id":           t.Match.ID,
			"mbid":         t.Match.MBID,
			"title":        t.Match.Title,
			"position":     t.Match.Position,
			"number":       t.Match.Number,
			"duration":     t.Match.Duration,
			"recording_id": t.Match.RecordingID,
			"url":          t.Match.URL(),
		}
	}
	return view
}

func jobView(j library.Job) map[string]any {
	var finished string
	if j.FinishedAt != nil {
		finished = formatTimestamp(*j.FinishedAt)
	}
	return map[string]any{
		"id":            j.ID,
		"kind":          j.Kind,
		"target_id":     j.TargetID,
		"status":        string(j.Status),
		"progress":      j.Progress,
		"synced":        j.Synced,
		"total":         j.Total,
		"error_kind":    j.ErrorKind,
		"error_message": j.ErrorMessage,
		"created_at":    formatTimestamp(j.CreatedAt),
		"updated_at":    formatTimestamp(j.UpdatedAt),
		"finished_at":   finished,
	}
}
