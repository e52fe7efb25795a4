package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Kalshi.validate("kalshi"); err != nil {
		return err
	}

	if c.LLM.MaxTokens < 1 {
		return errors.New("llm.max_tokens must be >= 1")
	}

	if c.Estimate.Timeout < 0 {
		return errors.New("estimate.timeout must be >= 0")
	}
	if c.Estimate.HistoryDays < 1 || c.Estimate.HistoryDays > 365 {
		return fmt.Errorf("estimate.history_days must be between 1 and 365, got %d", c.Estimate.HistoryDays)
	}
	if c.Estimate.TrendHorizon < 0 {
		return errors.New("estimate.trend_horizon must be >= 0")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Scan.Concurrency < 1 {
		return errors.New("scan.concurrency must be >= 1")
	}
	if c.Scan.Limit < 1 || c.Scan.Limit > 100 {
		return fmt.Errorf("scan.limit must be between 1 and 100, got %d", c.Scan.Limit)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	return nil
}

func (k *KalshiConfig) validate(prefix string) error {
	if k.RestURL == "" {
		return fmt.Errorf("%s.rest_url is required", prefix)
	}
	if k.APIKey == "" {
		return fmt.Errorf("%s.api_key is required", prefix)
	}
	if k.PrivateKeyPath == "" && k.PrivateKeyBase64 == "" {
		return fmt.Errorf("%s.private_key_path or %s.private_key_base64 is required", prefix, prefix)
	}
	if k.PrivateKeyPath != "" && k.PrivateKeyBase64 != "" {
		return fmt.Errorf("%s.private_key_path and %s.private_key_base64 are mutually exclusive", prefix, prefix)
	}
	if k.Timeout < 0 {
		return fmt.Errorf("%s.timeout must be >= 0", prefix)
	}
	return nil
}
