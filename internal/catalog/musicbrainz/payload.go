package musicbrainz

import (
	"fmt"
	"strings"

	"platter/internal/catalog"
)

type urlResponse struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Relations []struct {
		Type       string `json:"type"`
		TargetType string `json:"target-type"`
		Release    *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"release"`
	} `json:"relations"`
}

type searchResponse struct {
	Count    int             `json:"count"`
	Releases []searchRelease `json:"releases"`
}

type searchRelease struct {
	ID         string `json:"id"`
	Score      int    `json:"score"`
	Title      string `json:"title"`
	TrackCount int    `json:"track-count"`
	Media      []struct {
		Format     string `json:"format"`
		TrackCount int    `json:"track-count"`
	} `json:"media"`
}

func (r searchRelease) toCandidate() catalog.Candidate {
	c := catalog.Candidate{ID: r.ID, Score: r.Score, MediumTrackCount: r.TrackCount}
	sum := 0
	for _, m := range r.Media {
		c.MediumFormats = append(c.MediumFormats, m.Format)
		sum += m.TrackCount
	}
	if c.MediumTrackCount == 0 {
		c.MediumTrackCount = sum
	}
	return c
}

type releaseResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Media []struct {
		Position int    `json:"position"`
		Format   string `json:"format"`
		Tracks   []struct {
			ID        string `json:"id"`
			Number    string `json:"number"`
			Position  int    `json:"position"`
			Title     string `json:"title"`
			Length    *int   `json:"length"`
			Recording struct {
				ID     string `json:"id"`
				Title  string `json:"title"`
				Length *int   `json:"length"`
			} `json:"recording"`
		} `json:"tracks"`
	} `json:"media"`
}

// normalize flattens media into one track list. Titles come from the
// recording; durations from the track length, else the recording length.
func (r releaseResponse) normalize() *catalog.SecondRelease {
	out := &catalog.SecondRelease{ID: r.ID, Title: strings.TrimSpace(r.Title)}
	for _, medium := range r.Media {
		for _, t := range medium.Tracks {
			title := strings.TrimSpace(t.Recording.Title)
			if title == "" {
				title = strings.TrimSpace(t.Title)
			}
			length := t.Length
			if length == nil {
				length = t.Recording.Length
			}
			out.Tracks = append(out.Tracks, catalog.SecondTrack{
				ID:          t.ID,
				Title:       title,
				Position:    strings.TrimSpace(t.Number),
				Number:      t.Position,
				Duration:    formatLength(length),
				RecordingID: t.Recording.ID,
			})
		}
	}
	return out
}

// formatLength renders milliseconds as M:SS.
func formatLength(ms *int) string {
	if ms == nil || *ms <= 0 {
		return ""
	}
	seconds := *ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
