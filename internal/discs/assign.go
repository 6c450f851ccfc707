package discs

import (
	"strconv"

	"platter/internal/library"
)

// Disc is one physical medium of a release.
type Disc struct {
	ID string
	// Format is the declared format paired with this disc, or nil when the
	// release declares fewer media than its tracks imply.
	Format *library.Format
	Tracks []library.Track
	Vinyl  bool
}

// Assign groups the release's tracks into discs. Vinyl discs come first, one
// per pair of consecutive sides, labelled LP1, LP2, ...; other media follow,
// one per distinct disc token in first-seen order. Tracks keep source order.
func Assign(rel *library.Release) []Disc {
	if rel == nil {
		return nil
	}
	var vinylTracks, otherTracks []library.Track
	for _, t := range rel.Tracks {
		if ParsePosition(t.Position).IsVinylSide() {
			vinylTracks = append(vinylTracks, t)
		} else {
			otherTracks = append(otherTracks, t)
		}
	}
	vinylFormats, otherFormats := expandFormats(rel.Formats)

	out := assignVinyl(vinylTracks, vinylFormats)
	return append(out, assignOther(otherTracks, otherFormats)...)
}

// assignVinyl counts sides as the disc token changes between consecutive
// vinyl tracks; sides 1 and 2 form LP1, sides 3 and 4 LP2, and so on.
func assignVinyl(tracks []library.Track, formats []library.Format) []Disc {
	var out []Disc
	side := 0
	prev := ""
	for i, t := range tracks {
		token := ParsePosition(t.Position).Disc
		if i == 0 || token != prev {
			side++
			prev = token
		}
		idx := (side - 1) / 2
		if idx >= len(out) {
			out = append(out, Disc{ID: lpLabel(idx), Format: formatAt(formats, idx), Vinyl: true})
		}
		out[idx].Tracks = append(out[idx].Tracks, t)
	}
	return out
}

func assignOther(tracks []library.Track, formats []library.Format) []Disc {
	var out []Disc
	index := make(map[string]int)
	for _, t := range tracks {
		token := ParsePosition(t.Position).Disc
		idx, ok := index[token]
		if !ok {
			idx = len(out)
			index[token] = idx
			out = append(out, Disc{ID: token, Format: formatAt(formats, idx)})
		}
		out[idx].Tracks = append(out[idx].Tracks, t)
	}
	return out
}

// expandFormats repeats each vinyl or other-media format once per unit of
// quantity, each copy carrying a quantity of one.
func expandFormats(formats []library.Format) (vinyl, other []library.Format) {
	for _, f := range formats {
		isVinyl := f.IsVinyl()
		isOther := !isVinyl && f.IsOtherMedium()
		if !isVinyl && !isOther {
			continue
		}
		for n := 0; n < f.Quantity; n++ {
			unit := f
			unit.Quantity = 1
			if isVinyl {
				vinyl = append(vinyl, unit)
			} else {
				other = append(other, unit)
			}
		}
	}
	return vinyl, other
}

func formatAt(formats []library.Format, idx int) *library.Format {
	if idx >= len(formats) {
		return nil
	}
	f := formats[idx]
	return &f
}

func lpLabel(idx int) string {
	return "LP" + strconv.Itoa(idx+1)
}
