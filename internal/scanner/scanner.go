package scanner

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gatallahx/before-you-bet/internal/model"
)

// ErrAlreadyRunning is returned by Start on a running Scanner.
var ErrAlreadyRunning = errors.New("scanner already running")

// Analyzer produces an analysis for one ticker.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string, p float64) (*model.Analysis, error)
}

// TickerSource provides the tickers for each periodic scan.
type TickerSource interface {
	Tickers(ctx context.Context) ([]string, error)
}

// StaticTickers is a fixed TickerSource.
type StaticTickers []string

// Tickers returns the fixed list.
func (s StaticTickers) Tickers(context.Context) ([]string, error) {
	return s, nil
}

// ReportHandler receives each completed periodic scan.
type ReportHandler interface {
	HandleReport(report Report) error
}

// ReportHandlerFunc is a function adapter for ReportHandler.
type ReportHandlerFunc func(Report) error

func (f ReportHandlerFunc) HandleReport(r Report) error {
	return f(r)
}

// Config holds scanner configuration.
type Config struct {
	Interval    time.Duration // Re-scan interval for Start (default: 15m)
	Concurrency int           // Max concurrent analyses (default: 8)
	Timeout     time.Duration // Per-ticker timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    15 * time.Minute,
		Concurrency: 8,
		Timeout:     10 * time.Second,
	}
}

// Result is the outcome for one ticker. Exactly one of Analysis and Error is set.
type Result struct {
	Ticker   string          `json:"ticker"`
	Analysis *model.Analysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Report summarizes one scan.
type Report struct {
	Probability float64       `json:"probability"`
	Results     []Result      `json:"results"`
	Scanned     int64         `json:"scanned"`
	Failed      int64         `json:"failed"`
	Duration    time.Duration `json:"duration_ns"`
}

// Scanner analyzes batches of markets.
type Scanner struct {
	cfg      Config
	analyzer Analyzer
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// New creates a new Scanner. Zero config fields take DefaultConfig values.
func New(cfg Config, analyzer Analyzer, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &Scanner{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Scan analyzes every ticker at probability p. Successful results come first,
// ordered by expected value descending; failures follow in input order.
// Cancelling ctx stops tickers not yet started.
func (s *Scanner) Scan(ctx context.Context, tickers []string, p float64) Report {
	start := time.Now()

	results := make([]Result, len(tickers))
	var scanned, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i, ticker := range tickers {
		results[i].Ticker = ticker

		if ctx.Err() != nil {
			results[i].Error = ctx.Err().Error()
			failed.Add(1)
			continue
		}

		g.Go(func() error {
			a, err := s.scanMarket(ctx, ticker, p)
			if err != nil {
				s.logger.Warn("failed to analyze market",
					"ticker", ticker,
					"err", err,
				)
				results[i].Error = err.Error()
				failed.Add(1)
				return nil
			}

			results[i].Analysis = a
			scanned.Add(1)
			return nil
		})
	}

	g.Wait()

	rank(results)

	report := Report{
		Probability: p,
		Results:     results,
		Scanned:     scanned.Load(),
		Failed:      failed.Load(),
		Duration:    time.Since(start),
	}

	s.logger.Info("scan complete",
		"markets", len(tickers),
		"scanned", report.Scanned,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	return report
}

// scanMarket analyzes a single ticker under the per-ticker timeout.
func (s *Scanner) scanMarket(ctx context.Context, ticker string, p float64) (*model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	return s.analyzer.Analyze(ctx, ticker, p)
}

func rank(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Analysis == nil && b.Analysis == nil:
			return 0
		case a.Analysis == nil:
			return 1
		case b.Analysis == nil:
			return -1
		}
		ea, eb := a.Analysis.Metrics.ExpectedValue, b.Analysis.Metrics.ExpectedValue
		switch {
		case ea > eb:
			return -1
		case ea < eb:
			return 1
		default:
			return 0
		}
	})
}

// Start re-scans source every Interval at probability p, handing each report
// to handler. The first scan runs immediately.
func (s *Scanner) Start(ctx context.Context, source TickerSource, p float64, handler ReportHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx, source, p, handler)

	s.logger.Info("scanner started",
		"interval", s.cfg.Interval,
		"concurrency", s.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the periodic scan. A stopped Scanner may be
// started again.
func (s *Scanner) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scanner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main scan loop.
func (s *Scanner) run(ctx context.Context, source TickerSource, p float64, handler ReportHandler) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Scan immediately on start.
	s.scanSource(ctx, source, p, handler)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanSource(ctx, source, p, handler)
		}
	}
}

func (s *Scanner) scanSource(ctx context.Context, source TickerSource, p float64, handler ReportHandler) {
	tickers, err := source.Tickers(ctx)
	if err != nil {
		s.logger.Warn("failed to list tickers", "err", err)
		return
	}
	if len(tickers) == 0 {
		s.logger.Debug("no tickers to scan")
		return
	}

	report := s.Scan(ctx, tickers, p)
	if ctx.Err() != nil {
		return
	}

	if handler != nil {
		if err := handler.HandleReport(report); err != nil {
			s.logger.Warn("report handler failed", "err", err)
		}
	}
}
