package matcher

import (
	"context"
	"fmt"
	"strings"

	"platter/internal/catalog"
	"platter/internal/library"
	"platter/internal/logging"
)

// Strategy names how a match was found.
type Strategy string

const (
	StrategyCrossReference Strategy = "cross_reference"
	// StrategySearchPreferred picked a vinyl candidate with the same track count.
	StrategySearchPreferred Strategy = "search_preferred"
	// StrategySearchBest fell back to the best-scored surviving candidate.
	StrategySearchBest Strategy = "search_best"
)

// Match is an accepted second-catalog candidate.
type Match struct {
	ExternalID string
	Code       int
	Strategy   Strategy
}

const vinylMedium = "vinyl"

// FindMatch looks for rel in the second catalog. ok is false when nothing
// qualifies, which is a normal negative result.
func (m *Matcher) FindMatch(ctx context.Context, rel *library.Release) (Match, bool, error) {
	logger := logging.WithContext(ctx, m.logger).With(logging.Int64(logging.FieldReleaseID, rel.ID))

	ids, err := m.catalog.ReleasesForURL(ctx, rel.SourceURL())
	if err != nil {
		return Match{}, false, fmt.Errorf("cross-reference lookup: %w", err)
	}
	if len(ids) > 0 {
		if len(ids) > 1 {
			logging.WarnWithContext(logger, "multiple cross-references for release; taking the first", "ambiguous_match",
				logging.Int("candidates", len(ids)),
				logging.String("chosen", ids[0]),
				logging.String(logging.FieldErrorHint, "fix the relation in the second catalog or patch the match"),
				logging.String(logging.FieldImpact, "match may point at a sibling edition"),
			)
		}
		logger.Info("match decision", logging.Args(logging.DecisionAttrs("match_strategy", string(StrategyCrossReference), "url relation")...)...)
		return Match{ExternalID: ids[0], Code: m.policy.CrossReferenceCode, Strategy: StrategyCrossReference}, true, nil
	}

	query := catalog.SearchQuery{
		Title:   rel.Title,
		Artist:  rel.PrimaryArtist(),
		Year:    rel.Year,
		Mediums: rel.DiscCount(),
		Tracks:  len(rel.Tracks),
	}
	candidates, err := m.catalog.Search(ctx, query)
	if err != nil {
		return Match{}, false, fmt.Errorf("attribute search: %w", err)
	}
	match, ok := m.pick(candidates, query.Tracks)
	if !ok {
		logger.Info("match decision", logging.Args(logging.DecisionAttrs("match_strategy", "none",
			fmt.Sprintf("no candidate scored above %d", m.policy.ScoreThreshold))...)...)
		return Match{}, false, nil
	}
	logger.Info("match decision",
		logging.Args(append(logging.DecisionAttrs("match_strategy", string(match.Strategy), "attribute search"),
			logging.String("candidate", match.ExternalID),
			logging.Int("score", match.Code),
		)...)...)
	return match, true, nil
}

// pick filters candidates by score and applies the vinyl/track-count preference.
func (m *Matcher) pick(candidates []catalog.Candidate, tracks int) (Match, bool) {
	var best *catalog.Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Score <= m.policy.ScoreThreshold {
			continue
		}
		if hasVinylMedium(c.MediumFormats) && c.MediumTrackCount == tracks {
			return Match{ExternalID: c.ID, Code: c.Score, Strategy: StrategySearchPreferred}, true
		}
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	if best == nil {
		return Match{}, false
	}
	return Match{ExternalID: best.ID, Code: best.Score, Strategy: StrategySearchBest}, true
}

func hasVinylMedium(formats []string) bool {
	for _, f := range formats {
		if strings.Contains(strings.ToLower(f), vinylMedium) {
			return true
		}
	}
	return false
}
