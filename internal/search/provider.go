// Package search provides web search providers returning ordered result
// lists for the prefetch engine.
package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/websearch-cli/internal/model"
)

// DefaultMaxResults caps the result list when the caller passes no limit.
const DefaultMaxResults = 10

// Provider performs one search query.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
	Name() string
}

// Chain tries providers in priority order, returning the first non-empty
// result list.
type Chain struct {
	providers []Provider
}

// NewChain creates a Chain over the given providers.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Name reports the primary provider's name.
func (c *Chain) Name() string {
	if len(c.providers) == 0 {
		return "chain"
	}
	return c.providers[0].Name()
}

// Search runs each provider in order until one returns results.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	var lastErr error
	for _, p := range c.providers {
		results, err := p.Search(ctx, query, limit)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			lastErr = err
			zap.L().Debug("search: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "search: all providers failed")
	}
	return nil, eris.New("search: no results")
}
