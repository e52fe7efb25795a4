package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/model"
)

// ErrUnavailable is returned when no probability estimator is configured.
var ErrUnavailable = errors.New("estimator unavailable")

// Defaults for a Combiner.
const (
	DefaultTimeout = 120 * time.Second
	DefaultHorizon = 24 * time.Hour

	// Confidence attached to a degraded trend placeholder.
	degradedConfidence = 0.1
)

// ProbabilityEstimator estimates the true YES probability of a market.
type ProbabilityEstimator interface {
	EstimateProbability(ctx context.Context, s model.MarketSnapshot) (model.ProbabilityEstimate, error)
}

// TrendRequest is the input to a TrendPredictor.
type TrendRequest struct {
	Ticker  string
	Title   string
	Candles []api.RawCandle
}

// TrendPredictor forecasts the next-day price from candle history.
type TrendPredictor interface {
	PredictTrend(ctx context.Context, req TrendRequest) (model.TrendPrediction, error)
}

// Combiner fans out to both collaborators and joins the results.
type Combiner struct {
	estimator    ProbabilityEstimator
	predictor    TrendPredictor
	logger       *slog.Logger
	timeout      time.Duration
	horizon      time.Duration
	degradeTrend bool
	now          func() time.Time
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithTimeout bounds the whole fan-out. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Combiner) {
		c.timeout = d
	}
}

// WithHorizon sets how close to its close a market may be and still get a
// trend prediction.
func WithHorizon(d time.Duration) Option {
	return func(c *Combiner) {
		c.horizon = d
	}
}

// WithDegradeTrend controls whether a failed trend prediction is replaced by
// a neutral placeholder (true) or fails the estimate (false).
func WithDegradeTrend(degrade bool) Option {
	return func(c *Combiner) {
		c.degradeTrend = degrade
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Combiner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used for the horizon check.
func WithClock(now func() time.Time) Option {
	return func(c *Combiner) {
		c.now = now
	}
}

// NewCombiner creates a Combiner. A nil predictor disables trend prediction.
func NewCombiner(estimator ProbabilityEstimator, predictor TrendPredictor, opts ...Option) *Combiner {
	c := &Combiner{
		estimator:    estimator,
		predictor:    predictor,
		logger:       slog.Default(),
		timeout:      DefaultTimeout,
		horizon:      DefaultHorizon,
		degradeTrend: true,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Estimate runs the estimator and, when the market is far enough from its
// close, the trend predictor, then joins both results.
func (c *Combiner) Estimate(ctx context.Context, s model.MarketSnapshot, history []api.RawCandle) (*model.CombinedEstimate, error) {
	if c.estimator == nil {
		return nil, ErrUnavailable
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		g     errgroup.Group
		prob  model.ProbabilityEstimate
		trend *model.TrendPrediction
	)

	g.Go(func() error {
		est, err := c.estimator.EstimateProbability(ctx, s)
		if err != nil {
			return fmt.Errorf("estimate probability: %w", err)
		}
		prob = est
		return nil
	})

	if c.wantsTrend(s) {
		g.Go(func() error {
			p, err := c.predictor.PredictTrend(ctx, TrendRequest{
				Ticker:  s.Ticker,
				Title:   s.Title,
				Candles: history,
			})
			if err == nil {
				trend = &p
				return nil
			}
			if !c.degradeTrend {
				return fmt.Errorf("predict trend: %w", err)
			}

			c.logger.Warn("trend prediction degraded",
				"ticker", s.Ticker,
				"error", err,
			)
			neutral := model.NeutralTrend(degradedConfidence, "prediction unavailable: "+err.Error())
			neutral.Degraded = true
			trend = &neutral
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.CombinedEstimate{ProbabilityEstimate: prob, Trend: trend}, nil
}

// wantsTrend reports whether a trend prediction applies: a predictor is
// configured and the market closes after the horizon.
func (c *Combiner) wantsTrend(s model.MarketSnapshot) bool {
	if c.predictor == nil {
		return false
	}
	return s.CloseTime.Sub(c.now()) > c.horizon
}
