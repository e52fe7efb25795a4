package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted for fields the file leaves empty.
const (
	EnvKalshiAPIKey     = "KALSHI_API_KEY"
	EnvKalshiPrivateKey = "KALSHI_RSA_PRIVATE_KEY" // base64-encoded PEM
	EnvKalshiKeyPath    = "KALSHI_PRIVATE_KEY_PATH"
	EnvKalshiBaseURL    = "KALSHI_BASE_URL"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
)

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config, fills empty fields from the environment and
// applies default values. An empty path starts from an empty config.
func LoadWithDefaults(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Kalshi.APIKey, EnvKalshiAPIKey)
	setFromEnv(&c.Kalshi.RestURL, EnvKalshiBaseURL)
	if c.Kalshi.PrivateKeyPath == "" && c.Kalshi.PrivateKeyBase64 == "" {
		setFromEnv(&c.Kalshi.PrivateKeyBase64, EnvKalshiPrivateKey)
		if c.Kalshi.PrivateKeyBase64 == "" {
			setFromEnv(&c.Kalshi.PrivateKeyPath, EnvKalshiKeyPath)
		}
	}
	setFromEnv(&c.LLM.APIKey, EnvOpenAIAPIKey)
	setFromEnv(&c.LLM.BaseURL, EnvOpenAIBaseURL)
}

func setFromEnv(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}
