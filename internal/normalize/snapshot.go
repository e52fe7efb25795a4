package normalize

import (
	"time"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/model"
)

// ComplementRule converts a quote on one outcome into the implied quote on
// the other.
type ComplementRule interface {
	Implied(price float64) float64
}

// BinaryComplement is the YES + NO = 100 identity of a binary contract: a NO
// ask at p cents is a YES bid at 100 - p.
type BinaryComplement struct{}

// Implied returns 100 - price.
func (BinaryComplement) Implied(price float64) float64 {
	return 100 - price
}

// quoteSource is one step of a best-quote fallback chain.
type quoteSource func(m *api.APIMarket, book model.OrderBook, c ComplementRule) (float64, bool)

var (
	askChain = []quoteSource{bookYesAsk, marketYesAsk, marketYesAskDollars}
	bidChain = []quoteSource{bookImpliedYesBid, marketYesBid, marketYesBidDollars}
)

func bookYesAsk(_ *api.APIMarket, book model.OrderBook, _ ComplementRule) (float64, bool) {
	level, ok := book.Yes.Best()
	return level.Price, ok
}

func bookImpliedYesBid(_ *api.APIMarket, book model.OrderBook, c ComplementRule) (float64, bool) {
	level, ok := book.No.Best()
	if !ok {
		return 0, false
	}
	return c.Implied(level.Price), true
}

func marketYesAsk(m *api.APIMarket, _ model.OrderBook, _ ComplementRule) (float64, bool) {
	return deref(m.YesAsk)
}

func marketYesBid(m *api.APIMarket, _ model.OrderBook, _ ComplementRule) (float64, bool) {
	return deref(m.YesBid)
}

func marketYesAskDollars(m *api.APIMarket, _ model.OrderBook, _ ComplementRule) (float64, bool) {
	return DollarsToCents(m.YesAskDollars)
}

func marketYesBidDollars(m *api.APIMarket, _ model.OrderBook, _ ComplementRule) (float64, bool) {
	return DollarsToCents(m.YesBidDollars)
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// SnapshotNormalizer builds MarketSnapshots from market and orderbook
// payloads. The zero value uses BinaryComplement and the wall clock.
type SnapshotNormalizer struct {
	Complement ComplementRule
	Now        func() time.Time
}

// NewSnapshotNormalizer creates a normalizer for binary YES/NO markets.
func NewSnapshotNormalizer() *SnapshotNormalizer {
	return &SnapshotNormalizer{Complement: BinaryComplement{}, Now: time.Now}
}

// Normalize resolves the venue's two-sided quoting into a single-sided
// snapshot. Quotes fall back from the orderbook to the market's cent fields
// to its dollar fields, then to 0. Missing times fall back to the clock.
func (n *SnapshotNormalizer) Normalize(ticker string, m *api.APIMarket, book model.OrderBook) model.MarketSnapshot {
	s := model.MarketSnapshot{
		Ticker:         ticker,
		Title:          m.Title,
		RulesPrimary:   m.RulesPrimary,
		RulesSecondary: m.RulesSecondary,
		Volume:         count(m.Volume),
		OpenInterest:   count(m.OpenInterest),
	}

	var ok bool
	if s.BestAskYes, ok = n.quote(askChain, m, book); !ok {
		s.LowConfidence = append(s.LowConfidence, model.FieldBestAskYes)
	}
	if s.BestBidYes, ok = n.quote(bidChain, m, book); !ok {
		s.LowConfidence = append(s.LowConfidence, model.FieldBestBidYes)
	}

	now := n.now()
	if s.CloseTime, ok = firstTime(m.CloseTime, m.ExpirationTime); !ok {
		s.CloseTime = now
		s.LowConfidence = append(s.LowConfidence, model.FieldCloseTime)
	}
	if s.ExpirationTime, ok = firstTime(m.ExpirationTime, m.CloseTime); !ok {
		s.ExpirationTime = now
		s.LowConfidence = append(s.LowConfidence, model.FieldExpirationTime)
	}

	return s
}

// Summarize builds a listing row from a market payload alone.
func (n *SnapshotNormalizer) Summarize(m *api.APIMarket) model.MarketSummary {
	s := n.Normalize(m.Ticker, m, model.OrderBook{})
	return model.MarketSummary{
		Ticker:         s.Ticker,
		Title:          s.Title,
		YesAsk:         s.BestAskYes,
		YesBid:         s.BestBidYes,
		Volume:         s.Volume,
		OpenInterest:   s.OpenInterest,
		CloseTime:      s.CloseTime,
		ExpirationTime: s.ExpirationTime,
	}
}

func (n *SnapshotNormalizer) quote(chain []quoteSource, m *api.APIMarket, book model.OrderBook) (float64, bool) {
	c := n.Complement
	if c == nil {
		c = BinaryComplement{}
	}
	for _, src := range chain {
		if v, ok := src(m, book, c); ok {
			return v, true
		}
	}
	return 0, false
}

func (n *SnapshotNormalizer) now() time.Time {
	if n.Now == nil {
		return time.Now().UTC()
	}
	return n.Now().UTC()
}

func firstTime(candidates ...[]byte) (time.Time, bool) {
	for _, raw := range candidates {
		if t, ok := ParseTime(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseOrderBook converts [price, size] level pairs into canonical sides,
// preserving venue order. Malformed levels are skipped.
func ParseOrderBook(ob api.APIOrderbook) model.OrderBook {
	return model.OrderBook{
		Yes: parseSide(ob.Yes),
		No:  parseSide(ob.No),
	}
}

func parseSide(levels [][]float64) model.OrderBookSide {
	side := make(model.OrderBookSide, 0, len(levels))
	for _, level := range levels {
		if len(level) >= 2 {
			side = append(side, model.PriceLevel{
				Price: level[0],
				Size:  int64(level[1]),
			})
		}
	}
	return side
}
