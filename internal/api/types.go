package api

import "encoding/json"

// MaxMarketsLimit is the largest page the markets listing accepts per call.
const MaxMarketsLimit = 100

// ExchangeStatusResponse from GET /exchange/status
type ExchangeStatusResponse struct {
	ExchangeActive      bool   `json:"exchange_active"`
	TradingActive       bool   `json:"trading_active"`
	EstimatedResumeTime string `json:"exchange_estimated_resume_time,omitempty"`
}

// MarketsResponse from GET /markets
type MarketsResponse struct {
	Markets []APIMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// APIMarket represents a market from the Kalshi API.
//
// Quote and time fields stay loosely typed: the venue omits them, sends
// cents or dollar strings, and mixes ISO-8601 with Unix timestamps.
type APIMarket struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Status         string `json:"status"`
	RulesPrimary   string `json:"rules_primary"`
	RulesSecondary string `json:"rules_secondary"`

	// Prices in cents; nil when absent
	YesBid    *float64 `json:"yes_bid"`
	YesAsk    *float64 `json:"yes_ask"`
	LastPrice *float64 `json:"last_price"`

	// Prices as strings (sub-penny)
	YesBidDollars    string `json:"yes_bid_dollars"`
	YesAskDollars    string `json:"yes_ask_dollars"`
	LastPriceDollars string `json:"last_price_dollars"`

	Volume       json.Number `json:"volume"`
	OpenInterest json.Number `json:"open_interest"`

	// ISO-8601 string or Unix seconds
	CloseTime      json.RawMessage `json:"close_time"`
	ExpirationTime json.RawMessage `json:"expiration_time"`
}

// MarketResponse from GET /markets/{ticker}
type MarketResponse struct {
	Market APIMarket `json:"market"`
}

// OrderbookResponse from GET /markets/{ticker}/orderbook
type OrderbookResponse struct {
	Orderbook APIOrderbook `json:"orderbook"`
}

// APIOrderbook represents the orderbook from the Kalshi API.
type APIOrderbook struct {
	// Levels as [price_cents, quantity] pairs, best first
	Yes [][]float64 `json:"yes"`
	No  [][]float64 `json:"no"`
}

// RawCandle is one candlestick record as sent by the venue. Field names and
// nesting drift between API versions, so it is kept as a generic object.
type RawCandle map[string]any

// CandlesticksResponse from GET /series/{series}/markets/{ticker}/candlesticks
type CandlesticksResponse struct {
	Ticker       string      `json:"ticker"`
	Candlesticks []RawCandle `json:"candlesticks"`
}

// GetMarketsOptions configures a GetMarkets request.
type GetMarketsOptions struct {
	Limit  int
	Cursor string
	Status string
}

// CandlesticksOptions configures a GetCandlesticks request.
type CandlesticksOptions struct {
	Ticker        string
	LookbackDays  int
	PeriodMinutes int
}
