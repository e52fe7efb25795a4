package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/estimate"
	"github.com/gatallahx/before-you-bet/internal/model"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newVenueServer serves canned payloads keyed by request path.
func newVenueServer(t *testing.T, routes map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newTestService(t *testing.T, routes map[string]string, opts ...Option) *Service {
	t.Helper()
	server, _ := newVenueServer(t, routes)
	client := api.NewClient(server.URL, nil, api.WithClock(func() time.Time { return fixedNow }))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(client, opts...)
}

var abcRoutes = map[string]string{
	"/markets/ABC-1":           `{"market":{"ticker":"ABC-1","title":"Will ABC happen?","volume":1200,"open_interest":300,"close_time":"2025-12-31T23:59:59Z"}}`,
	"/markets/ABC-1/orderbook": `{"orderbook":{"yes":[[40,100]],"no":[[65,50]]}}`,
}

func TestAnalyze_EndToEnd(t *testing.T) {
	svc := newTestService(t, abcRoutes)

	a, err := svc.Analyze(context.Background(), "ABC-1", 0.5)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if a.ID == uuid.Nil {
		t.Error("ID is nil")
	}
	if !a.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, fixedNow)
	}
	if a.Market.BestAskYes != 40 || a.Market.BestBidYes != 35 {
		t.Errorf("ask/bid = %v/%v, want 40/35", a.Market.BestAskYes, a.Market.BestBidYes)
	}
	if a.Market.Volume != 1200 || a.Market.OpenInterest != 300 {
		t.Errorf("volume/oi = %d/%d, want 1200/300", a.Market.Volume, a.Market.OpenInterest)
	}

	m := a.Metrics
	if math.Abs(m.Alpha-10) > 1e-9 {
		t.Errorf("Alpha = %v, want 10", m.Alpha)
	}
	if math.Abs(m.ExpectedValue-10) > 1e-9 {
		t.Errorf("ExpectedValue = %v, want 10", m.ExpectedValue)
	}
	if math.Abs(m.KellyPercentage-100.0/6.0) > 1e-9 {
		t.Errorf("KellyPercentage = %v, want %v", m.KellyPercentage, 100.0/6.0)
	}
	if m.SpreadCost != 5 {
		t.Errorf("SpreadCost = %v, want 5", m.SpreadCost)
	}
}

func TestAnalyze_InvalidProbability(t *testing.T) {
	svc := NewService(nil)

	for _, p := range []float64{-0.1, 1.01, math.NaN()} {
		_, err := svc.Analyze(context.Background(), "ABC-1", p)
		if !errors.Is(err, ErrInvalidProbability) {
			t.Errorf("Analyze(p=%v) err = %v, want ErrInvalidProbability", p, err)
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Analyze(p=%v) err = %v, want ErrInvalidArgument", p, err)
		}
	}
}

func TestMetrics(t *testing.T) {
	svc := newTestService(t, abcRoutes)

	m, err := svc.Metrics(context.Background(), "ABC-1", 1.0)
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if m.ExpectedValue != 60 {
		t.Errorf("ExpectedValue = %v, want 60", m.ExpectedValue)
	}
	if m.TrueProbability != 1.0 {
		t.Errorf("TrueProbability = %v, want 1", m.TrueProbability)
	}
}

func TestSnapshot_EmptyBookFallsBackToMarket(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"/markets/XYZ-9":           `{"market":{"ticker":"XYZ-9","yes_ask_dollars":"0.6100","yes_bid":58,"close_time":1767225599}}`,
		"/markets/XYZ-9/orderbook": `{"orderbook":{"yes":null,"no":[]}}`,
	})

	snap, err := svc.Snapshot(context.Background(), "XYZ-9")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.BestAskYes != 61 {
		t.Errorf("BestAskYes = %v, want 61", snap.BestAskYes)
	}
	if snap.BestBidYes != 58 {
		t.Errorf("BestBidYes = %v, want 58", snap.BestBidYes)
	}
	if !snap.CloseTime.Equal(time.Unix(1767225599, 0)) {
		t.Errorf("CloseTime = %v", snap.CloseTime)
	}
}

func TestSnapshot_TransportFailure(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"/markets/ABC-1": abcRoutes["/markets/ABC-1"],
	})

	_, err := svc.Snapshot(context.Background(), "ABC-1")
	if !errors.Is(err, api.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("err = %v, want APIError 404", err)
	}
}

func TestSnapshot_EmptyTicker(t *testing.T) {
	_, err := NewService(nil).Snapshot(context.Background(), "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestTopMarkets(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		w.Write([]byte(`{"markets":[
			{"ticker":"LOW","volume":5,"yes_ask":10},
			{"ticker":"HIGH","volume":900,"yes_ask":80,"yes_bid":78},
			{"ticker":"MID","volume":50}
		]}`))
	}))
	defer server.Close()

	svc := NewService(api.NewClient(server.URL, nil), WithClock(func() time.Time { return fixedNow }))

	t.Run("sorted by volume", func(t *testing.T) {
		rows, err := svc.TopMarkets(context.Background(), 250)
		if err != nil {
			t.Fatalf("TopMarkets failed: %v", err)
		}
		if gotQuery.Load() != "limit=100&status=open" {
			t.Errorf("query = %v, want limit=100&status=open", gotQuery.Load())
		}

		want := []string{"HIGH", "MID", "LOW"}
		if len(rows) != len(want) {
			t.Fatalf("len(rows) = %d, want %d", len(rows), len(want))
		}
		for i, w := range want {
			if rows[i].Ticker != w {
				t.Errorf("rows[%d].Ticker = %q, want %q", i, rows[i].Ticker, w)
			}
		}
		if rows[0].YesAsk != 80 || rows[0].YesBid != 78 {
			t.Errorf("rows[0] ask/bid = %v/%v, want 80/78", rows[0].YesAsk, rows[0].YesBid)
		}
	})

	t.Run("truncated to limit", func(t *testing.T) {
		rows, err := svc.TopMarkets(context.Background(), 2)
		if err != nil {
			t.Fatalf("TopMarkets failed: %v", err)
		}
		if len(rows) != 2 || rows[1].Ticker != "MID" {
			t.Errorf("rows = %+v, want HIGH, MID", rows)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := svc.TopMarkets(context.Background(), 0)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestHistory(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"/markets/KXBTC-25DEC31": `{"market":{"title":"BTC above 100k"}}`,
		"/series/KXBTC/markets/KXBTC-25DEC31/candlesticks": `{"ticker":"KXBTC-25DEC31","candlesticks":[
			{"end_period_ts":1748736000,"price":{"close":60}},
			{"end_period_ts":1748649600,"price":{"close":50}},
			{"price":{"close":1}}
		]}`,
	})

	h, err := svc.History(context.Background(), "KXBTC-25DEC31", 7)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	if h.Title != "BTC above 100k" {
		t.Errorf("Title = %q, want %q", h.Title, "BTC above 100k")
	}
	if h.Days != 7 {
		t.Errorf("Days = %d, want 7", h.Days)
	}
	if len(h.Candles) != 2 {
		t.Fatalf("len(Candles) = %d, want 2", len(h.Candles))
	}
	if h.Candles[0].Close != 50 || h.Candles[0].Open != 50 {
		t.Errorf("Candles[0] = %+v, want flat 50", h.Candles[0])
	}
	if h.PriceChange != 10 || math.Abs(h.PriceChangePct-20) > 1e-9 {
		t.Errorf("change = %v (%v%%), want 10 (20%%)", h.PriceChange, h.PriceChangePct)
	}
}

func TestHistory_InvalidDays(t *testing.T) {
	svc := NewService(nil)
	for _, days := range []int{0, -1, 366} {
		if _, err := svc.History(context.Background(), "X", days); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("History(days=%d) err = %v, want ErrInvalidArgument", days, err)
		}
		if _, err := svc.RawHistory(context.Background(), "X", days); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("RawHistory(days=%d) err = %v, want ErrInvalidArgument", days, err)
		}
	}
}

func TestRawHistory(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"/series/SOLO/markets/SOLO/candlesticks": `{"ticker":"SOLO","candlesticks":[{"ts":1,"yes_bid":{"close":3}}]}`,
	})

	resp, err := svc.RawHistory(context.Background(), "SOLO", 30)
	if err != nil {
		t.Fatalf("RawHistory failed: %v", err)
	}
	if len(resp.Candlesticks) != 1 {
		t.Fatalf("len(Candlesticks) = %d, want 1", len(resp.Candlesticks))
	}
	if _, ok := resp.Candlesticks[0]["yes_bid"].(map[string]any); !ok {
		t.Errorf("yes_bid = %T, want raw nested object", resp.Candlesticks[0]["yes_bid"])
	}
}

// stubEstimator records what it was given.
type stubEstimator struct {
	snap    model.MarketSnapshot
	history []api.RawCandle
	err     error
}

func (s *stubEstimator) Estimate(ctx context.Context, snap model.MarketSnapshot, history []api.RawCandle) (*model.CombinedEstimate, error) {
	s.snap = snap
	s.history = history
	if s.err != nil {
		return nil, s.err
	}
	return &model.CombinedEstimate{ProbabilityEstimate: model.ProbabilityEstimate{Probability: 0.7}}, nil
}

func TestEstimate(t *testing.T) {
	routes := map[string]string{
		"/series/ABC/markets/ABC-1/candlesticks": `{"candlesticks":[{"ts":1,"close":40},{"ts":2,"close":42}]}`,
	}
	for k, v := range abcRoutes {
		routes[k] = v
	}

	stub := &stubEstimator{}
	svc := newTestService(t, routes, WithEstimator(stub))

	est, err := svc.Estimate(context.Background(), "ABC-1")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if est.Probability != 0.7 {
		t.Errorf("Probability = %v, want 0.7", est.Probability)
	}
	if stub.snap.BestAskYes != 40 {
		t.Errorf("estimator snapshot ask = %v, want 40", stub.snap.BestAskYes)
	}
	if len(stub.history) != 2 {
		t.Errorf("estimator history = %d candles, want 2", len(stub.history))
	}
}

func TestEstimate_Errors(t *testing.T) {
	t.Run("no estimator", func(t *testing.T) {
		_, err := NewService(nil).Estimate(context.Background(), "ABC-1")
		if !errors.Is(err, estimate.ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("estimator failure", func(t *testing.T) {
		routes := map[string]string{"/series/ABC/markets/ABC-1/candlesticks": `{"candlesticks":[]}`}
		for k, v := range abcRoutes {
			routes[k] = v
		}
		cause := errors.New("llm down")
		svc := newTestService(t, routes, WithEstimator(&stubEstimator{err: cause}))

		_, err := svc.Estimate(context.Background(), "ABC-1")
		if !errors.Is(err, cause) {
			t.Errorf("err = %v, want %v", err, cause)
		}
	})
}

func TestAnalysis_JSONShape(t *testing.T) {
	svc := newTestService(t, abcRoutes)
	a, err := svc.Analyze(context.Background(), "ABC-1", 0.5)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"id", "market_data", "decision_metrics"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
}
