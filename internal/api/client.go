package api

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestSigner produces authentication headers for one request.
// *auth.Credentials satisfies it.
type RequestSigner interface {
	SignRequest(method, path string) (map[string]string, error)
}

// Client provides access to the Kalshi REST API.
type Client struct {
	baseURL    string
	signer     RequestSigner
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. A nil signer sends unauthenticated requests.
func NewClient(baseURL string, signer RequestSigner, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		signer:  signer,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the clock used for candlestick windows.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}
