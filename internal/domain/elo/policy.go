package elo

import (
	"github.com/okian/grapple/internal/domain/model"
)

const (
	// DefaultK is the base K-factor.
	DefaultK = 32.0
	// DefaultInitialRating is the rating a wrestler starts from.
	DefaultInitialRating = 1500.0
)

// KPolicy decides how many rating points a match can move.
type KPolicy interface {
	K(m model.Match) float64
}

// DecisionPolicy scales a base K by a per-decision-type multiplier.
type DecisionPolicy struct {
	base        float64
	multipliers map[model.DecisionType]float64
	overtime    float64
}

// PolicyOption applies a configuration option to the DecisionPolicy.
type PolicyOption func(*DecisionPolicy)

// DefaultMultipliers returns the stock multiplier table: dominant finishes
// move more points, everything else moves the base K.
func DefaultMultipliers() map[model.DecisionType]float64 {
	return map[model.DecisionType]float64{
		model.DecisionFall:     1.5,
		model.DecisionTechFall: 1.25,
		model.DecisionMajor:    1.1,
	}
}

// WithMultiplier sets the multiplier for one decision type.
func WithMultiplier(d model.DecisionType, v float64) PolicyOption {
	return func(p *DecisionPolicy) {
		if v > 0 {
			p.multipliers[d] = v
		}
	}
}

// WithMultipliers sets multipliers keyed by decision type name
// ("fall", "tech_fall", ...). Unknown names and non-positive values are ignored.
func WithMultipliers(byName map[string]float64) PolicyOption {
	return func(p *DecisionPolicy) {
		for name, v := range byName {
			d, err := model.ParseDecisionType(name)
			if err != nil || v <= 0 {
				continue
			}
			p.multipliers[d] = v
		}
	}
}

// WithOvertimeMultiplier scales decisions won in sudden victory or a tiebreaker.
func WithOvertimeMultiplier(v float64) PolicyOption {
	return func(p *DecisionPolicy) {
		if v > 0 {
			p.overtime = v
		}
	}
}

// NewDecisionPolicy creates a policy with base K and the default multipliers.
func NewDecisionPolicy(base float64, opts ...PolicyOption) *DecisionPolicy {
	if base <= 0 {
		base = DefaultK
	}
	p := &DecisionPolicy{base: base, multipliers: DefaultMultipliers(), overtime: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Multiplier returns the multiplier for d (1 when unset).
func (p *DecisionPolicy) Multiplier(d model.DecisionType) float64 {
	if v, ok := p.multipliers[d]; ok {
		return v
	}
	return 1
}

// K implements KPolicy.
func (p *DecisionPolicy) K(m model.Match) float64 {
	k := p.base * p.Multiplier(m.Decision)
	if m.Overtime && m.Decision == model.DecisionDecision {
		k *= p.overtime
	}
	return k
}
