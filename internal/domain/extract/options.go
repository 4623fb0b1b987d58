package extract

import (
	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/pkg/logger"
)

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNameAliases rewrites normalized wrestler names. Keys match
// case-insensitively on the normalized name.
func WithNameAliases(aliases map[string]string) Option {
	return func(e *Extractor) {
		for from, to := range aliases {
			if k := model.WrestlerKey(from); k != "" && to != "" {
				e.nameAliases[k] = to
			}
		}
	}
}

// WithTeamAliases rewrites team names. Keys match case-insensitively.
func WithTeamAliases(aliases map[string]string) Option {
	return func(e *Extractor) {
		for from, to := range aliases {
			if k := model.WrestlerKey(from); k != "" && to != "" {
				e.teamAliases[k] = to
			}
		}
	}
}
