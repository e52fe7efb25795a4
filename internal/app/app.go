// Package app assembles the venue client, estimators, analysis service and
// scanner from a loaded configuration. Both binaries start here.
package app

import (
	"fmt"
	"log/slog"

	"github.com/gatallahx/before-you-bet/internal/analysis"
	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/auth"
	"github.com/gatallahx/before-you-bet/internal/config"
	"github.com/gatallahx/before-you-bet/internal/estimate"
	"github.com/gatallahx/before-you-bet/internal/llm"
	"github.com/gatallahx/before-you-bet/internal/scanner"
)

// App holds the wired components.
type App struct {
	Client  *api.Client
	Service *analysis.Service
	Scanner *scanner.Scanner
	Source  scanner.TickerSource
}

// New wires an App. Invalid credentials fail with auth.ErrInvalidKey.
// Estimates are disabled when no LLM key is configured.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	creds, err := Credentials(cfg.Kalshi)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.Kalshi.RestURL, creds,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Kalshi.Timeout),
	)

	opts := []analysis.Option{
		analysis.WithLogger(logger),
		analysis.WithEstimateHistoryDays(cfg.Estimate.HistoryDays),
	}
	if cfg.LLM.Enabled() {
		opts = append(opts, analysis.WithEstimator(newCombiner(cfg, logger)))
	} else {
		logger.Warn("llm api key not set, estimates disabled")
	}
	svc := analysis.NewService(client, opts...)

	sc := scanner.New(scanner.Config{
		Interval:    cfg.Scan.Interval,
		Concurrency: cfg.Scan.Concurrency,
		Timeout:     cfg.Scan.Timeout,
	}, svc, logger)

	return &App{
		Client:  client,
		Service: svc,
		Scanner: sc,
		Source:  scanner.TopMarkets{Lister: svc, Limit: cfg.Scan.Limit},
	}, nil
}

// Credentials loads the signing key from a file path or a base64 PEM.
func Credentials(cfg config.KalshiConfig) (*auth.Credentials, error) {
	var (
		creds *auth.Credentials
		err   error
	)
	if cfg.PrivateKeyBase64 != "" {
		creds, err = auth.LoadCredentialsBase64(cfg.APIKey, cfg.PrivateKeyBase64)
	} else {
		creds, err = auth.LoadCredentials(cfg.APIKey, cfg.PrivateKeyPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

func newCombiner(cfg *config.Config, logger *slog.Logger) *estimate.Combiner {
	client := llm.NewClient(llm.Config{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		EstimateModel: cfg.LLM.EstimateModel,
		PredictModel:  cfg.LLM.PredictModel,
		MaxTokens:     cfg.LLM.MaxTokens,
	}, llm.WithLogger(logger))

	return estimate.NewCombiner(client, client,
		estimate.WithTimeout(cfg.Estimate.Timeout),
		estimate.WithHorizon(cfg.Estimate.TrendHorizon),
		estimate.WithDegradeTrend(cfg.Estimate.DegradeTrendEnabled()),
		estimate.WithLogger(logger),
	)
}
