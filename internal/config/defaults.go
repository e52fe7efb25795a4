package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL         = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultAPITimeout      = 30 * time.Second
	DefaultEstimateModel   = "gpt-4o-mini-search-preview"
	DefaultPredictModel    = "gpt-4o-mini"
	DefaultMaxTokens       = 500
	DefaultEstimateTimeout = 120 * time.Second
	DefaultHistoryDays     = 30
	DefaultTrendHorizon    = 24 * time.Hour
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 180 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultScanConcurrency = 8
	DefaultScanTimeout     = 10 * time.Second
	DefaultScanInterval    = 15 * time.Minute
	DefaultScanLimit       = 20
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

func (c *Config) applyDefaults() {
	// Kalshi defaults
	if c.Kalshi.RestURL == "" {
		c.Kalshi.RestURL = DefaultRestURL
	}
	if c.Kalshi.Timeout == 0 {
		c.Kalshi.Timeout = DefaultAPITimeout
	}

	// LLM defaults
	if c.LLM.EstimateModel == "" {
		c.LLM.EstimateModel = DefaultEstimateModel
	}
	if c.LLM.PredictModel == "" {
		c.LLM.PredictModel = DefaultPredictModel
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}

	// Estimate defaults
	if c.Estimate.Timeout == 0 {
		c.Estimate.Timeout = DefaultEstimateTimeout
	}
	if c.Estimate.HistoryDays == 0 {
		c.Estimate.HistoryDays = DefaultHistoryDays
	}
	if c.Estimate.TrendHorizon == 0 {
		c.Estimate.TrendHorizon = DefaultTrendHorizon
	}

	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Scan defaults
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = DefaultScanConcurrency
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = DefaultScanTimeout
	}
	if c.Scan.Interval == 0 {
		c.Scan.Interval = DefaultScanInterval
	}
	if c.Scan.Limit == 0 {
		c.Scan.Limit = DefaultScanLimit
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
