package align

import (
	"strings"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
)

// Similarity scores two titles from 0 (unrelated) to 100 (identical after
// case folding and trimming), using normalized Levenshtein distance.
func Similarity(a, b string) float64 {
	// Casers keep state and must not be shared across goroutines.
	fold := cases.Fold()
	a = fold.String(strings.TrimSpace(a))
	b = fold.String(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim) * 100
}

// Cost is the price of pairing a local track with a second-catalog track.
func (p Policy) Cost(localTitle, localPosition, remoteTitle, remotePosition string) float64 {
	distance := 100 - Similarity(localTitle, remoteTitle)
	var mismatch float64
	if strings.TrimSpace(localPosition) != strings.TrimSpace(remotePosition) {
		mismatch = p.PositionPenalty
	}
	return p.TitleWeight*distance + p.PositionWeight*mismatch
}
