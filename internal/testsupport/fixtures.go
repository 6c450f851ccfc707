package testsupport

import (
	"fmt"

	"platter/internal/catalog"
)

// RawRelease builds a marketplace release with one credited artist, one vinyl
// LP, and the given track positions titled "Track <position>".
func RawRelease(id int64, positions ...string) *catalog.RawRelease {
	raw := &catalog.RawRelease{
		ID:          id,
		MasterID:    id * 10,
		Title:       fmt.Sprintf("Release %d", id),
		ArtistsSort: "Test Artist",
		Year:        1970,
		Artists:     []catalog.RawArtist{{ID: 1, Name: "Test Artist"}},
		Formats: []catalog.RawFormat{{
			Name:         "Vinyl",
			Quantity:     "1",
			Descriptions: []string{"LP", "Album"},
		}},
	}
	for _, pos := range positions {
		raw.Tracklist = append(raw.Tracklist, catalog.RawTrack{
			Position: pos,
			Type:     "track",
			Title:    "Track " + pos,
			Duration: "3:30",
		})
	}
	return raw
}
