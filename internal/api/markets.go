package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default candlestick window.
const (
	DefaultLookbackDays  = 30
	DefaultPeriodMinutes = 1440 // daily
)

// GetMarkets fetches a page of markets. Callers clamp Limit to MaxMarketsLimit.
func (c *Client) GetMarkets(ctx context.Context, opts GetMarketsOptions) (*MarketsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}

	var resp MarketsResponse
	if err := c.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}

	return &resp, nil
}

// GetMarket fetches a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*MarketResponse, error) {
	var resp MarketResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return nil, fmt.Errorf("get market %s: %w", ticker, err)
	}
	return &resp, nil
}

// GetOrderbook fetches the full orderbook for a market.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (*OrderbookResponse, error) {
	var resp OrderbookResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker)+"/orderbook", nil, &resp); err != nil {
		return nil, fmt.Errorf("get orderbook %s: %w", ticker, err)
	}
	return &resp, nil
}

// GetCandlesticks fetches candlestick history for the window
// [now - LookbackDays, now] at PeriodMinutes resolution.
func (c *Client) GetCandlesticks(ctx context.Context, opts CandlesticksOptions) (*CandlesticksResponse, error) {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.PeriodMinutes <= 0 {
		opts.PeriodMinutes = DefaultPeriodMinutes
	}

	end := c.now()
	start := end.Add(-time.Duration(opts.LookbackDays) * 24 * time.Hour)

	query := url.Values{}
	query.Set("start_ts", strconv.FormatInt(start.Unix(), 10))
	query.Set("end_ts", strconv.FormatInt(end.Unix(), 10))
	query.Set("period_interval", strconv.Itoa(opts.PeriodMinutes))

	path := "/series/" + url.PathEscape(SeriesTicker(opts.Ticker)) +
		"/markets/" + url.PathEscape(opts.Ticker) + "/candlesticks"

	var resp CandlesticksResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get candlesticks %s: %w", opts.Ticker, err)
	}

	return &resp, nil
}

// SeriesTicker derives the series identifier from a market ticker:
// "KXBTC-25DEC31-100000" -> "KXBTC". A ticker without a hyphen is its own series.
func SeriesTicker(ticker string) string {
	if i := strings.IndexByte(ticker, '-'); i >= 0 {
		return ticker[:i]
	}
	return ticker
}

// GetExchangeStatus fetches the current exchange status.
func (c *Client) GetExchangeStatus(ctx context.Context) (*ExchangeStatusResponse, error) {
	var resp ExchangeStatusResponse
	if err := c.get(ctx, "/exchange/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("get exchange status: %w", err)
	}
	return &resp, nil
}
