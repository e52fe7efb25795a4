package scanner

import (
	"context"

	"github.com/gatallahx/before-you-bet/internal/model"
)

// MarketLister lists open markets by volume.
type MarketLister interface {
	TopMarkets(ctx context.Context, limit int) ([]model.MarketSummary, error)
}

// TopMarkets is a TickerSource over the most traded open markets.
type TopMarkets struct {
	Lister MarketLister
	Limit  int
}

// Tickers returns the current top markets' tickers.
func (t TopMarkets) Tickers(ctx context.Context) ([]string, error) {
	rows, err := t.Lister.TopMarkets(ctx, t.Limit)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(rows))
	for _, r := range rows {
		tickers = append(tickers, r.Ticker)
	}
	return tickers, nil
}
