package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/estimate"
	"github.com/gatallahx/before-you-bet/internal/model"
)

// promptCandles is how many of the most recent candles go into a prediction prompt.
const promptCandles = 30

// Confidence attached to placeholder predictions.
const (
	emptyReplyConfidence    = 0.1
	unparsedReplyConfidence = 0.3
	defaultConfidence       = 0.5
)

const predictSystemPrompt = `You are an expert quantitative analyst specializing in prediction market price forecasting. Your job is to analyze historical price data and predict the next day's price movement.

You will be given:
- Historical candlestick data (OHLC + volume) for a prediction market
- The market title and current price

Based on the price patterns, volume trends, momentum, and any technical signals you can identify, predict the next day's price.

Focus on:
- Recent price momentum and direction
- Volume patterns and what they indicate
- Support/resistance levels
- Mean reversion vs trend continuation signals
- Volatility patterns

You MUST respond in this exact JSON format:
{
  "predicted_price": <number between 0-100>,
  "confidence": <number between 0-1>,
  "trend": "<up|down|neutral>",
  "reasoning": "<your explanation>"
}`

// trendResult tolerates numbers sent as strings and missing fields.
type trendResult struct {
	PredictedPrice json.Number `json:"predicted_price"`
	Confidence     json.Number `json:"confidence"`
	Trend          string      `json:"trend"`
	Reasoning      string      `json:"reasoning"`
}

// PredictTrend asks the model for a next-day price from raw candle history.
// Empty or unparseable replies yield a degraded neutral prediction rather
// than an error; transport failures are returned.
func (c *Client) PredictTrend(ctx context.Context, req estimate.TrendRequest) (model.TrendPrediction, error) {
	prompt, err := predictPrompt(req)
	if err != nil {
		return model.TrendPrediction{}, fmt.Errorf("predict %s: %w", req.Ticker, err)
	}

	msg, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.predictModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: predictSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return model.TrendPrediction{}, fmt.Errorf("predict %s: %w", req.Ticker, err)
	}

	p := parseTrend(msg.Content)
	if p.Degraded {
		c.logger.Warn("unusable trend reply", "ticker", req.Ticker, "reason", p.Reasoning)
	}
	return p, nil
}

func parseTrend(content string) model.TrendPrediction {
	if strings.TrimSpace(content) == "" {
		p := model.NeutralTrend(emptyReplyConfidence, "model returned empty response")
		p.Degraded = true
		return p
	}

	var r trendResult
	if err := json.Unmarshal([]byte(extractJSON(content)), &r); err != nil {
		p := model.NeutralTrend(unparsedReplyConfidence, "could not parse JSON. Raw: "+truncate(content, 300))
		p.Degraded = true
		return p
	}

	p := model.TrendPrediction{
		PredictedPrice: clamp(numberOr(r.PredictedPrice, 50), 0, 100),
		Confidence:     clamp(numberOr(r.Confidence, defaultConfidence), 0, 1),
		Trend:          normalizeTrend(r.Trend),
		Reasoning:      r.Reasoning,
	}
	if p.Reasoning == "" {
		p.Reasoning = "No reasoning provided"
	}
	return p
}

func predictPrompt(req estimate.TrendRequest) (string, error) {
	candles := req.Candles
	if len(candles) > promptCandles {
		candles = candles[len(candles)-promptCandles:]
	}
	if candles == nil {
		candles = []api.RawCandle{}
	}

	data, err := json.MarshalIndent(candles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode candles: %w", err)
	}

	return fmt.Sprintf(`Analyze this prediction market's historical price data and predict tomorrow's price.

**Market:** %s
**Ticker:** %s

**Raw Historical Candlestick Data (JSON):**
%s

Based on the price patterns, momentum, and volume trends in the data above, predict tomorrow's price.

Remember to respond in the exact JSON format specified.`, req.Title, req.Ticker, data), nil
}

func normalizeTrend(s string) string {
	switch t := strings.ToLower(strings.TrimSpace(s)); t {
	case model.TrendUp, model.TrendDown:
		return t
	default:
		return model.TrendNeutral
	}
}

func numberOr(n json.Number, fallback float64) float64 {
	if n == "" {
		return fallback
	}
	f, err := n.Float64()
	if err != nil {
		return fallback
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
