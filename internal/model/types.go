package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Market State
// -----------------------------------------------------------------------------

// Field names reported in MarketSnapshot.LowConfidence when the value was
// defaulted rather than read from the venue.
const (
	FieldBestAskYes     = "best_ask_yes"
	FieldBestBidYes     = "best_bid_yes"
	FieldCloseTime      = "close_time"
	FieldExpirationTime = "expiration_date"
)

// MarketSnapshot is the canonical single-sided view of a binary market.
//
// 0 <= BestBidYes <= BestAskYes <= 100 is the usual case but is not
// guaranteed: venue quotes can be crossed or absent.
type MarketSnapshot struct {
	Ticker         string    `json:"ticker"`
	Title          string    `json:"title"`
	RulesPrimary   string    `json:"rules_primary"`
	RulesSecondary string    `json:"rules_secondary"`
	BestAskYes     float64   `json:"best_ask_yes"` // cents
	BestBidYes     float64   `json:"best_bid_yes"` // cents
	Volume         int64     `json:"volume"`
	OpenInterest   int64     `json:"open_interest"`
	CloseTime      time.Time `json:"close_time"`
	ExpirationTime time.Time `json:"expiration_date"`

	// Fields that fell through every fallback and hold a default.
	LowConfidence []string `json:"low_confidence,omitempty"`
}

// IsLowConfidence reports whether field was defaulted.
func (s MarketSnapshot) IsLowConfidence(field string) bool {
	for _, f := range s.LowConfidence {
		if f == field {
			return true
		}
	}
	return false
}

// PriceLevel represents a single price level in an orderbook.
type PriceLevel struct {
	Price float64 `json:"price"` // cents
	Size  int64   `json:"size"`
}

// OrderBookSide lists levels best price first. Empty means no liquidity.
type OrderBookSide []PriceLevel

// Best returns the first level, if any.
func (s OrderBookSide) Best() (PriceLevel, bool) {
	if len(s) == 0 {
		return PriceLevel{}, false
	}
	return s[0], true
}

// OrderBook holds both outcome sides of a binary market.
type OrderBook struct {
	Yes OrderBookSide `json:"yes"`
	No  OrderBookSide `json:"no"`
}

// MarketSummary is one row of the open-markets listing.
type MarketSummary struct {
	Ticker         string    `json:"ticker"`
	Title          string    `json:"title"`
	YesAsk         float64   `json:"yes_ask"`
	YesBid         float64   `json:"yes_bid"`
	Volume         int64     `json:"volume"`
	OpenInterest   int64     `json:"open_interest"`
	CloseTime      time.Time `json:"close_time"`
	ExpirationTime time.Time `json:"expiration_date"`
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

// Candle is one OHLCV period. Prices are cents.
//
// When Close is positive and Open, High or Low could not be resolved, the
// missing component equals Close (flat candle). This is an approximation.
type Candle struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// CandleSeries is ordered by Time ascending.
type CandleSeries []Candle

// Change returns the absolute and percentage close-to-close change across the
// series. Both are 0 with fewer than two candles; pct is 0 when the first
// close is 0.
func (s CandleSeries) Change() (abs, pct float64) {
	if len(s) < 2 {
		return 0, 0
	}
	first := s[0].Close
	abs = s[len(s)-1].Close - first
	if first > 0 {
		pct = abs / first * 100
	}
	return abs, pct
}

// PriceHistory is a normalized candle window plus its change summary.
type PriceHistory struct {
	Ticker         string       `json:"ticker"`
	Title          string       `json:"title"`
	Days           int          `json:"days"`
	Candles        CandleSeries `json:"candles"`
	PriceChange    float64      `json:"price_change"`
	PriceChangePct float64      `json:"price_change_pct"`
}

// -----------------------------------------------------------------------------
// Decisions
// -----------------------------------------------------------------------------

// DecisionMetrics are derived from a snapshot and a probability estimate.
type DecisionMetrics struct {
	SpreadCost      float64 `json:"spread_cost"`      // cents, may be negative
	TrueProbability float64 `json:"true_probability"` // 0-1
	Alpha           float64 `json:"alpha"`            // percentage points
	ExpectedValue   float64 `json:"expected_value"`   // cents per contract
	KellyPercentage float64 `json:"kelly_percentage"` // 0-100
}

// Analysis pairs a snapshot with the metrics computed from it.
type Analysis struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Market    MarketSnapshot  `json:"market_data"`
	Metrics   DecisionMetrics `json:"decision_metrics"`
}

// -----------------------------------------------------------------------------
// Estimates
// -----------------------------------------------------------------------------

// Trend directions reported by a TrendPrediction.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// ProbabilityEstimate is a researched estimate of the YES outcome.
type ProbabilityEstimate struct {
	Probability  float64  `json:"probability"`
	Analysis     string   `json:"analysis"`
	KeyTakeaways []string `json:"key_takeaways"`
	Risks        []string `json:"risks"`
	Reasoning    string   `json:"reasoning"`
}

// TrendPrediction is a next-day price forecast from candle history.
type TrendPrediction struct {
	PredictedPrice float64 `json:"predicted_price"` // cents, 0-100
	Confidence     float64 `json:"confidence"`      // 0-1
	Trend          string  `json:"trend"`
	Reasoning      string  `json:"reasoning"`

	// Degraded marks a neutral placeholder standing in for a failed prediction.
	Degraded bool `json:"degraded,omitempty"`
}

// NeutralTrend returns the placeholder used when a prediction is unavailable.
func NeutralTrend(confidence float64, reason string) TrendPrediction {
	return TrendPrediction{
		PredictedPrice: 50,
		Confidence:     confidence,
		Trend:          TrendNeutral,
		Reasoning:      reason,
	}
}

// CombinedEstimate joins a probability estimate with an optional trend
// prediction. Trend is nil when the market closes too soon to forecast.
type CombinedEstimate struct {
	ProbabilityEstimate
	Trend *TrendPrediction `json:"trend_prediction"`
}
