package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/model"
	"github.com/gatallahx/before-you-bet/internal/normalize"
)

// History returns daily candles for the last days days with the
// close-to-close change across the window.
func (s *Service) History(ctx context.Context, ticker string, days int) (*model.PriceHistory, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	var (
		market  *api.MarketResponse
		candles *api.CandlesticksResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		market, err = s.venue.GetMarket(gctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		candles, err = s.venue.GetCandlesticks(gctx, api.CandlesticksOptions{
			Ticker:        ticker,
			LookbackDays:  days,
			PeriodMinutes: api.DefaultPeriodMinutes,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("history %s: %w", ticker, err)
	}

	series := normalize.NormalizeCandles(candles.Candlesticks)
	if dropped := len(candles.Candlesticks) - len(series); dropped > 0 {
		s.logger.Debug("candles without timestamp dropped",
			"ticker", ticker,
			"dropped", dropped,
		)
	}

	change, pct := series.Change()
	return &model.PriceHistory{
		Ticker:         ticker,
		Title:          market.Market.Title,
		Days:           days,
		Candles:        series,
		PriceChange:    change,
		PriceChangePct: pct,
	}, nil
}

// RawHistory returns the venue's candlestick payload unmodified.
func (s *Service) RawHistory(ctx context.Context, ticker string, days int) (*api.CandlesticksResponse, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	resp, err := s.venue.GetCandlesticks(ctx, api.CandlesticksOptions{
		Ticker:        ticker,
		LookbackDays:  days,
		PeriodMinutes: api.DefaultPeriodMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("raw history %s: %w", ticker, err)
	}
	return resp, nil
}

func validateDays(days int) error {
	if days < 1 || days > MaxHistoryDays {
		return fmt.Errorf("%w: days %d must be within [1, %d]", ErrInvalidArgument, days, MaxHistoryDays)
	}
	return nil
}
