package fetch

import (
	"context"

	"go.uber.org/zap"
)

// Chain tries strategies in priority order, returning the first usable
// body.
type Chain struct {
	strategies []Strategy
}

// NewChain creates a Chain over the given strategies, tried in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Fetch returns the best available body for the filing, or an empty
// string when every strategy is exhausted. It never returns an error:
// downstream extraction tolerates an empty body.
func (c *Chain) Fetch(ctx context.Context, receiptNo string) string {
	for _, s := range c.strategies {
		body, err := s.Fetch(ctx, receiptNo)
		if err == nil && body != "" {
			return body
		}
		if err != nil {
			zap.L().Debug("fetch: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("rcept_no", receiptNo),
				zap.Error(err),
			)
		}
	}

	zap.L().Warn("fetch: all strategies exhausted",
		zap.String("rcept_no", receiptNo),
	)
	return ""
}
