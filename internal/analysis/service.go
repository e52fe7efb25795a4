package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/decision"
	"github.com/gatallahx/before-you-bet/internal/estimate"
	"github.com/gatallahx/before-you-bet/internal/model"
	"github.com/gatallahx/before-you-bet/internal/normalize"
)

// Input validation errors.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidProbability = fmt.Errorf("%w: probability must be within [0, 1]", ErrInvalidArgument)
)

// History window bounds, in days.
const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

// Venue is the subset of the venue client the service needs.
type Venue interface {
	GetMarket(ctx context.Context, ticker string) (*api.MarketResponse, error)
	GetOrderbook(ctx context.Context, ticker string) (*api.OrderbookResponse, error)
	GetMarkets(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error)
	GetCandlesticks(ctx context.Context, opts api.CandlesticksOptions) (*api.CandlesticksResponse, error)
}

// Estimator produces a combined estimate for a snapshot and its raw history.
type Estimator interface {
	Estimate(ctx context.Context, s model.MarketSnapshot, history []api.RawCandle) (*model.CombinedEstimate, error)
}

// Service answers analysis requests.
type Service struct {
	venue       Venue
	normalizer  *normalize.SnapshotNormalizer
	estimator   Estimator
	logger      *slog.Logger
	now         func() time.Time
	historyDays int
}

// Option configures a Service.
type Option func(*Service)

// WithEstimator enables Estimate.
func WithEstimator(e Estimator) Option {
	return func(s *Service) {
		s.estimator = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for defaulted timestamps and analysis stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithEstimateHistoryDays sets how much candle history Estimate sends to the
// trend predictor.
func WithEstimateHistoryDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.historyDays = days
		}
	}
}

// NewService creates a Service over venue.
func NewService(venue Venue, opts ...Option) *Service {
	s := &Service{
		venue:       venue,
		logger:      slog.Default(),
		now:         time.Now,
		historyDays: DefaultHistoryDays,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.normalizer = &normalize.SnapshotNormalizer{
		Complement: normalize.BinaryComplement{},
		Now:        s.now,
	}

	return s
}

// Snapshot fetches market and orderbook concurrently and normalizes them.
// The first failure cancels the sibling fetch.
func (s *Service) Snapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrInvalidArgument)
	}

	var (
		market *api.MarketResponse
		book   *api.OrderbookResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		market, err = s.venue.GetMarket(gctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		book, err = s.venue.GetOrderbook(gctx, ticker)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", ticker, err)
	}

	snap := s.normalizer.Normalize(ticker, &market.Market, normalize.ParseOrderBook(book.Orderbook))
	if len(snap.LowConfidence) > 0 {
		s.logger.Debug("snapshot fields defaulted",
			"ticker", ticker,
			"fields", snap.LowConfidence,
		)
	}

	return &snap, nil
}

// Analyze returns the snapshot together with metrics for probability p.
func (s *Service) Analyze(ctx context.Context, ticker string, p float64) (*model.Analysis, error) {
	if err := validateProbability(p); err != nil {
		return nil, err
	}

	snap, err := s.Snapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return &model.Analysis{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Market:    *snap,
		Metrics:   decision.Compute(*snap, p),
	}, nil
}

// Metrics returns only the decision metrics for probability p.
func (s *Service) Metrics(ctx context.Context, ticker string, p float64) (*model.DecisionMetrics, error) {
	a, err := s.Analyze(ctx, ticker, p)
	if err != nil {
		return nil, err
	}
	return &a.Metrics, nil
}

// Estimate fetches the snapshot and its raw history concurrently, then runs
// the configured estimator.
func (s *Service) Estimate(ctx context.Context, ticker string) (*model.CombinedEstimate, error) {
	if s.estimator == nil {
		return nil, estimate.ErrUnavailable
	}

	var (
		snap    *model.MarketSnapshot
		history *api.CandlesticksResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.Snapshot(gctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.venue.GetCandlesticks(gctx, api.CandlesticksOptions{
			Ticker:       ticker,
			LookbackDays: s.historyDays,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	est, err := s.estimator.Estimate(ctx, *snap, history.Candlesticks)
	if err != nil {
		return nil, fmt.Errorf("estimate %s: %w", ticker, err)
	}
	return est, nil
}

func validateProbability(p float64) error {
	// Also rejects NaN.
	if !(p >= 0 && p <= 1) {
		return ErrInvalidProbability
	}
	return nil
}
