package library

import (
	"fmt"
	"strings"
	"time"
)

const (
	sourceReleaseURL = "https://www.discogs.com/release/%d"
	matchReleaseURL  = "https://musicbrainz.org/release/%s"
	matchTrackURL    = "https://musicbrainz.org/track/%s"
)

var (
	// VinylFormatNames are the format names that hold side-lettered media.
	VinylFormatNames = []string{"Vinyl"}
	// OtherFormatNames are the non-vinyl physical media counted as discs.
	OtherFormatNames = []string{"CD", "DVD"}
)

// User owns collections and maps to one marketplace account.
type User struct {
	ID              int64
	Name            string
	DiscogsUsername string
	CreatedAt       time.Time
}

// Collection mirrors one remote collection folder.
type Collection struct {
	ID          int64
	UserID      int64
	FolderID    int64
	Name        string
	Count       int
	ResourceURL string
}

// Artist is shared across releases and keyed by its marketplace id.
type Artist struct {
	ID           int64
	SourceID     int64
	Name         string
	ResourceURL  string
	ThumbnailURL string
}

// FormatDescription is a shared descriptor such as "LP" or "Album", keyed by text.
type FormatDescription struct {
	ID   int64
	Text string
}

// Format is one declared medium block of a release.
type Format struct {
	ID           int64
	ReleaseID    int64
	Name         string
	Quantity     int
	Note         string
	Descriptions []FormatDescription
}

// DescriptionString joins the note and description texts for display.
func (f Format) DescriptionString() string {
	parts := make([]string, 0, len(f.Descriptions)+1)
	if note := strings.TrimSpace(f.Note); note != "" {
		parts = append(parts, note)
	}
	for _, d := range f.Descriptions {
		parts = append(parts, d.Text)
	}
	return strings.Join(parts, ", ")
}

// IsVinyl reports whether the format holds side-lettered media.
func (f Format) IsVinyl() bool {
	return containsName(VinylFormatNames, f.Name)
}

// IsOtherMedium reports whether the format is a non-vinyl physical disc.
func (f Format) IsOtherMedium() bool {
	return containsName(OtherFormatNames, f.Name)
}

// Track is one playable entry of a release tracklist.
type Track struct {
	ID              int64
	ReleaseID       int64
	Position        string
	Type            string
	Title           string
	Duration        string
	DurationSeconds *int
	MatchID         *int64
	MatchCost       *float64
	Match           *SecondTrack
}

// DisplayDuration returns the track duration, falling back to the matched
// second-catalog track when the marketplace listing has none.
func (t Track) DisplayDuration() string {
	if strings.TrimSpace(t.Duration) != "" {
		return t.Duration
	}
	if t.Match != nil {
		return t.Match.Duration
	}
	return ""
}

// Release is one edition owned by the local store.
type Release struct {
	ID          int64
	SourceID    int64
	MasterID    int64
	Title       string
	ArtistsSort string
	Year        int
	Thumb       string
	CoverImage  string
	CreatedAt   time.Time
	MatchID     *int64
	MatchCode   *int

	Artists []Artist
	Formats []Format
	Tracks  []Track
	Match   *SecondRelease
}

// SourceURL is the canonical marketplace page, used for cross-reference lookups.
func (r Release) SourceURL() string {
	return fmt.Sprintf(sourceReleaseURL, r.SourceID)
}

// MatchURL links the matched second-catalog release, or "" when unmatched.
func (r Release) MatchURL() string {
	if r.Match == nil {
		return ""
	}
	return fmt.Sprintf(matchReleaseURL, r.Match.MBID)
}

// PrimaryArtist returns the first credited artist name.
func (r Release) PrimaryArtist() string {
	if len(r.Artists) == 0 {
		return ""
	}
	return r.Artists[0].Name
}

// DiscCount sums declared quantities over vinyl and other physical formats.
func (r Release) DiscCount() int {
	total := 0
	for _, f := range r.Formats {
		if f.IsVinyl() || f.IsOtherMedium() {
			total += f.Quantity
		}
	}
	return total
}

// SecondRelease caches a second-catalog release keyed by its MBID.
type SecondRelease struct {
	ID     int64
	MBID   string
	Title  string
	Tracks []SecondTrack
}

// SecondTrack caches one second-catalog track.
type SecondTrack struct {
	ID              int64
	SecondReleaseID int64
	MBID            string
	Title           string
	Position        string
	Number          int
	Duration        string
	RecordingID     string
}

// URL links the track page in the second catalog.
func (t SecondTrack) URL() string {
	return fmt.Sprintf(matchTrackURL, t.MBID)
}

// Counts summarizes table sizes.
type Counts struct {
	Releases           int
	Tracks             int
	Artists            int
	FormatDescriptions int
	SecondReleases     int
	Collections        int
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
