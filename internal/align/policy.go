package align

import "platter/internal/config"

// Policy holds the cost weights.
type Policy struct {
	TitleWeight     float64
	PositionWeight  float64
	PositionPenalty float64
}

// DefaultPolicy weights title distance at 0.9 and a 100-point position
// mismatch at 0.1.
func DefaultPolicy() Policy {
	return Policy{TitleWeight: 0.9, PositionWeight: 0.1, PositionPenalty: 100}
}

// PolicyFromConfig reads the weights from the matching section.
func PolicyFromConfig(cfg config.Matching) Policy {
	return Policy{
		TitleWeight:     cfg.TitleWeight,
		PositionWeight:  cfg.PositionWeight,
		PositionPenalty: cfg.PositionPenalty,
	}.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.TitleWeight < 0 {
		p.TitleWeight = d.TitleWeight
	}
	if p.PositionWeight < 0 {
		p.PositionWeight = d.PositionWeight
	}
	if p.TitleWeight == 0 && p.PositionWeight == 0 {
		p.TitleWeight, p.PositionWeight = d.TitleWeight, d.PositionWeight
	}
	if p.PositionPenalty <= 0 {
		p.PositionPenalty = d.PositionPenalty
	}
	return p
}
