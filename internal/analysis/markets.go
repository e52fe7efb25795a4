package analysis

import (
	"context"
	"fmt"
	"slices"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/model"
)

// Listing defaults.
const (
	DefaultMarketsLimit = api.MaxMarketsLimit
	openStatus          = "open"
)

// TopMarkets lists open markets by volume, highest first. limit must be
// positive; values above the venue's page ceiling are clamped to it.
func (s *Service) TopMarkets(ctx context.Context, limit int) ([]model.MarketSummary, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit %d must be at least 1", ErrInvalidArgument, limit)
	}
	limit = min(limit, api.MaxMarketsLimit)

	resp, err := s.venue.GetMarkets(ctx, api.GetMarketsOptions{Limit: limit, Status: openStatus})
	if err != nil {
		return nil, fmt.Errorf("top markets: %w", err)
	}

	rows := make([]model.MarketSummary, 0, len(resp.Markets))
	for i := range resp.Markets {
		rows = append(rows, s.normalizer.Summarize(&resp.Markets[i]))
	}

	slices.SortStableFunc(rows, func(a, b model.MarketSummary) int {
		switch {
		case a.Volume > b.Volume:
			return -1
		case a.Volume < b.Volume:
			return 1
		default:
			return 0
		}
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
