package decision

import "github.com/gatallahx/before-you-bet/internal/model"

// Payout is what a winning binary contract pays, in cents.
const Payout = 100.0

// SpreadCost returns ask - bid. A crossed book yields a negative spread.
func SpreadCost(ask, bid float64) float64 {
	return ask - bid
}

// ImpliedProbability reads a YES ask as a probability.
func ImpliedProbability(ask float64) float64 {
	return ask / Payout
}

// Alpha is the edge over the market in percentage points.
func Alpha(p, implied float64) float64 {
	return (p - implied) * 100
}

// ExpectedValue is the expected profit per contract in cents when buying at cost.
func ExpectedValue(p, cost float64) float64 {
	return p*Payout - cost
}

// KellyFraction returns the Kelly stake as a fraction of bankroll in [0, 1].
// Costs outside (0, 100) have no defined odds and return 0.
func KellyFraction(p, cost float64) float64 {
	if cost <= 0 || cost >= Payout {
		return 0
	}

	b := Payout/cost - 1 // net odds
	q := 1 - p

	kelly := (b*p - q) / b
	return min(max(kelly, 0), 1)
}

// KellyPercentage is KellyFraction scaled to 0-100.
func KellyPercentage(p, cost float64) float64 {
	return KellyFraction(p, cost) * 100
}

// Compute derives all metrics for buying YES at the snapshot's best ask.
func Compute(s model.MarketSnapshot, p float64) model.DecisionMetrics {
	return model.DecisionMetrics{
		SpreadCost:      SpreadCost(s.BestAskYes, s.BestBidYes),
		TrueProbability: p,
		Alpha:           Alpha(p, ImpliedProbability(s.BestAskYes)),
		ExpectedValue:   ExpectedValue(p, s.BestAskYes),
		KellyPercentage: KellyPercentage(p, s.BestAskYes),
	}
}
