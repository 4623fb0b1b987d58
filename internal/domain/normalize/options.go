package normalize

import (
	"strings"

	"github.com/okian/grapple/pkg/logger"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithSkipKeywords adds weight-cell keywords that mark administrative rows
// (point deductions, corrections) in dual meet tables.
func WithSkipKeywords(keywords ...string) Option {
	return func(n *Normalizer) {
		for _, k := range keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				n.skipKeywords = append(n.skipKeywords, k)
			}
		}
	}
}
