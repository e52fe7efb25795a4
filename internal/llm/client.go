package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMalformedResponse is returned when a completion cannot be used.
var ErrMalformedResponse = errors.New("malformed model response")

// Default models and limits.
const (
	DefaultEstimateModel = "gpt-4o-mini-search-preview"
	DefaultPredictModel  = "gpt-4o-mini"
	DefaultMaxTokens     = 500
)

// Config holds the chat completions endpoint and model choices.
type Config struct {
	APIKey        string
	BaseURL       string // empty uses the OpenAI default
	EstimateModel string
	PredictModel  string
	MaxTokens     int // predictor reply budget
}

// Client talks to the chat completions API.
type Client struct {
	api           *openai.Client
	estimateModel string
	predictModel  string
	maxTokens     int
	logger        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewClient creates a Client. Empty models and limits take the defaults.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if o.httpClient != nil {
		apiCfg.HTTPClient = o.httpClient
	}

	c := &Client{
		api:           openai.NewClientWithConfig(apiCfg),
		estimateModel: cfg.EstimateModel,
		predictModel:  cfg.PredictModel,
		maxTokens:     cfg.MaxTokens,
		logger:        o.logger,
	}
	if c.estimateModel == "" {
		c.estimateModel = DefaultEstimateModel
	}
	if c.predictModel == "" {
		c.predictModel = DefaultPredictModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}

	return c
}

// complete sends one chat request and returns the first choice's message.
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}

	c.logger.Debug("chat completion",
		"model", req.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Message, nil
}
