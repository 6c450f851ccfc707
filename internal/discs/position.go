package discs

import (
	"regexp"
	"strconv"
)

// UnknownTrack is the track number of a position without trailing digits.
const UnknownTrack = -1

// UnknownDisc is the disc token of a position without a usable prefix.
const UnknownDisc = "?"

var (
	trackPattern = regexp.MustCompile(`(\d+)$`)
	discPattern  = regexp.MustCompile(`^(?:LP-)?([a-zA-Z0-9]+)`)
)

// Position is a parsed track position code such as "A1", "CD2-07", or "1-3".
type Position struct {
	Disc  string
	Track int
}

// ParsePosition splits a position into its disc token (the prefix before the
// trailing digits) and track number.
func ParsePosition(pos string) Position {
	p := Position{Disc: UnknownDisc, Track: UnknownTrack}
	prefix := pos
	if loc := trackPattern.FindStringSubmatchIndex(pos); loc != nil {
		n, err := strconv.Atoi(pos[loc[2]:loc[3]])
		if err == nil {
			p.Track = n
		}
		prefix = pos[:loc[0]]
	}
	if m := discPattern.FindStringSubmatch(prefix); m != nil {
		p.Disc = m[1]
	}
	return p
}

// IsVinylSide reports whether the disc token is a repeated single letter
// ("A", "BB"), the way sides of a record are labelled.
func (p Position) IsVinylSide() bool {
	if p.Disc == "" {
		return false
	}
	first := p.Disc[0]
	if !('a' <= first && first <= 'z' || 'A' <= first && first <= 'Z') {
		return false
	}
	for i := 1; i < len(p.Disc); i++ {
		if p.Disc[i] != first {
			return false
		}
	}
	return true
}
