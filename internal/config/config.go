package config

import "time"

// Config is the root configuration.
type Config struct {
	Kalshi   KalshiConfig   `yaml:"kalshi"`
	LLM      LLMConfig      `yaml:"llm"`
	Estimate EstimateConfig `yaml:"estimate"`
	Server   ServerConfig   `yaml:"server"`
	Scan     ScanConfig     `yaml:"scan"`
	Log      LogConfig      `yaml:"log"`
}

// KalshiConfig holds venue API settings.
type KalshiConfig struct {
	RestURL          string        `yaml:"rest_url"`
	APIKey           string        `yaml:"api_key"`            // API key ID (KALSHI-ACCESS-KEY header)
	PrivateKeyPath   string        `yaml:"private_key_path"`   // Path to RSA private key PEM file
	PrivateKeyBase64 string        `yaml:"private_key_base64"` // Base64-encoded PEM, for environments without files
	Timeout          time.Duration `yaml:"timeout"`
}

// LLMConfig holds the chat completions endpoint used by the estimators.
// An empty APIKey disables estimates.
type LLMConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	EstimateModel string `yaml:"estimate_model"`
	PredictModel  string `yaml:"predict_model"`
	MaxTokens     int    `yaml:"max_tokens"`
}

// Enabled reports whether an LLM key is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// EstimateConfig tunes the combined estimate.
type EstimateConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	HistoryDays  int           `yaml:"history_days"`
	TrendHorizon time.Duration `yaml:"trend_horizon"`
	DegradeTrend *bool         `yaml:"degrade_trend"` // nil means true
}

// DegradeTrendEnabled reports whether a failed trend prediction degrades to
// a neutral placeholder instead of failing the estimate.
func (c EstimateConfig) DegradeTrendEnabled() bool {
	return c.DegradeTrend == nil || *c.DegradeTrend
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ScanConfig holds batch scanner settings.
type ScanConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
	Limit       int           `yaml:"limit"` // markets scanned when no tickers are given
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}
