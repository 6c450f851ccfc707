package matcher

import "platter/internal/config"

// Policy holds the match acceptance rules.
type Policy struct {
	// ScoreThreshold is the exclusive lower bound on search scores.
	ScoreThreshold int
	// CrossReferenceCode is recorded for URL cross-reference hits; it sits
	// above the 0-100 search score range.
	CrossReferenceCode int
	Concurrency        int
}

// DefaultPolicy returns the stock acceptance rules.
func DefaultPolicy() Policy {
	return Policy{ScoreThreshold: 90, CrossReferenceCode: 101, Concurrency: 2}
}

// PolicyFromConfig reads the matching section.
func PolicyFromConfig(cfg config.Matching) Policy {
	return Policy{
		ScoreThreshold:     cfg.ScoreThreshold,
		CrossReferenceCode: cfg.CrossReferenceCode,
		Concurrency:        cfg.Concurrency,
	}.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.ScoreThreshold < 0 || p.ScoreThreshold > 100 {
		p.ScoreThreshold = d.ScoreThreshold
	}
	if p.CrossReferenceCode <= 100 {
		p.CrossReferenceCode = d.CrossReferenceCode
	}
	if p.Concurrency <= 0 {
		p.Concurrency = d.Concurrency
	}
	return p
}
