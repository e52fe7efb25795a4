package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/gatallahx/before-you-bet/internal/model"
)

const estimateSystemPrompt = `You are an expert prediction market analyst and probability estimator. Your job is to analyze prediction market questions and estimate the true probability of the outcome occurring.

You have access to web search to find the latest news, data, and expert opinions. Use this to inform your analysis.

Guidelines:
- Be calibrated: a 70% probability should resolve YES 70% of the time
- Consider base rates and historical precedents
- Account for uncertainty and unknown unknowns
- Be specific about what information influenced your estimate
- Identify the key factors that could change the outcome
- Consider both upside and downside risks
- Provide 3-5 key takeaways and 3-5 risks`

// estimateResult is the reply schema sent to the model.
type estimateResult struct {
	Probability  float64  `json:"probability" description:"Estimated probability between 0 and 1"`
	Analysis     string   `json:"analysis" description:"Detailed analysis of the market and current situation"`
	KeyTakeaways []string `json:"key_takeaways" description:"3-5 key takeaways from the analysis"`
	Risks        []string `json:"risks" description:"3-5 risks that could affect the outcome"`
	Reasoning    string   `json:"reasoning" description:"Explanation of how the probability was estimated"`
}

var estimateSchema = mustSchema(estimateResult{})

func mustSchema(v any) *jsonschema.Definition {
	s, err := jsonschema.GenerateSchemaForType(v)
	if err != nil {
		panic(fmt.Sprintf("llm: generate schema: %v", err))
	}
	return s
}

// EstimateProbability asks the model for the true YES probability of a market.
func (c *Client) EstimateProbability(ctx context.Context, s model.MarketSnapshot) (model.ProbabilityEstimate, error) {
	msg, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.estimateModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: estimateSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: estimatePrompt(s)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "probability_estimate",
				Schema: estimateSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return model.ProbabilityEstimate{}, fmt.Errorf("estimate %s: %w", s.Ticker, err)
	}

	if msg.Refusal != "" {
		return model.ProbabilityEstimate{}, fmt.Errorf("estimate %s: %w: refused: %s", s.Ticker, ErrMalformedResponse, msg.Refusal)
	}

	est, err := parseEstimate(msg.Content)
	if err != nil {
		return model.ProbabilityEstimate{}, fmt.Errorf("estimate %s: %w", s.Ticker, err)
	}
	return est, nil
}

func parseEstimate(content string) (model.ProbabilityEstimate, error) {
	body := extractJSON(content)
	if body == "" {
		return model.ProbabilityEstimate{}, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var r estimateResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return model.ProbabilityEstimate{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if r.Probability < 0 || r.Probability > 1 {
		return model.ProbabilityEstimate{}, fmt.Errorf("%w: probability %v outside [0, 1]", ErrMalformedResponse, r.Probability)
	}

	return model.ProbabilityEstimate{
		Probability:  r.Probability,
		Analysis:     r.Analysis,
		KeyTakeaways: r.KeyTakeaways,
		Risks:        r.Risks,
		Reasoning:    r.Reasoning,
	}, nil
}

func estimatePrompt(s model.MarketSnapshot) string {
	askProb := s.BestAskYes / 100
	bidProb := s.BestBidYes / 100
	mid := (askProb + bidProb) / 2

	var rules strings.Builder
	if s.RulesPrimary != "" {
		fmt.Fprintf(&rules, "\n**Primary Resolution Rules:**\n%s\n", s.RulesPrimary)
	}
	if s.RulesSecondary != "" {
		fmt.Fprintf(&rules, "\n**Secondary Resolution Rules:**\n%s\n", s.RulesSecondary)
	}

	var b strings.Builder
	b.WriteString("Analyze this Kalshi prediction market and estimate the TRUE probability of the outcome.\n\n")
	fmt.Fprintf(&b, "**Market Title:** %s\n%s\n", s.Title, rules.String())
	b.WriteString("**Market Data:**\n")
	fmt.Fprintf(&b, "- Ticker: %s\n", s.Ticker)
	fmt.Fprintf(&b, "- Best Ask (YES): %g¢ (implied prob: %.1f%%)\n", s.BestAskYes, askProb*100)
	fmt.Fprintf(&b, "- Best Bid (YES): %g¢ (implied prob: %.1f%%)\n", s.BestBidYes, bidProb*100)
	fmt.Fprintf(&b, "- Market Midpoint: %.1f%%\n", mid*100)
	fmt.Fprintf(&b, "- Volume: %d contracts\n", s.Volume)
	fmt.Fprintf(&b, "- Open Interest: %d contracts\n", s.OpenInterest)
	fmt.Fprintf(&b, "- Close Time: %s\n", s.CloseTime.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "- Expiration: %s\n\n", s.ExpirationTime.UTC().Format("2006-01-02 15:04 UTC"))
	b.WriteString(`**Your Task:**
1. Use web search to find the latest relevant news, data, and expert opinions
2. Carefully consider the resolution rules above when estimating probability
3. Analyze the current situation and key factors affecting this outcome
4. Consider what the market might be missing or mispricing
5. Estimate the TRUE probability (which may differ from the market's implied probability)
6. Identify 3-5 key takeaways and 3-5 risks

`)
	fmt.Fprintf(&b, "Remember: The market's implied probability is ~%.1f%%. Your job is to determine if this is accurate, too high, or too low based on your research and the specific resolution criteria.", mid*100)

	return b.String()
}
