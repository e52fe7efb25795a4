package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatallahx/before-you-bet/internal/analysis"
	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/estimate"
	"github.com/gatallahx/before-you-bet/internal/model"
	"github.com/gatallahx/before-you-bet/internal/scanner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeService records the last arguments and returns canned values or err.
type fakeService struct {
	err error

	ticker string
	p      float64
	limit  int
	days   int
}

func (f *fakeService) Snapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	f.ticker = ticker
	if f.err != nil {
		return nil, f.err
	}
	return &model.MarketSnapshot{Ticker: ticker, BestAskYes: 40, BestBidYes: 35}, nil
}

func (f *fakeService) Analyze(ctx context.Context, ticker string, p float64) (*model.Analysis, error) {
	f.ticker, f.p = ticker, p
	if f.err != nil {
		return nil, f.err
	}
	return &model.Analysis{
		Market:  model.MarketSnapshot{Ticker: ticker, BestAskYes: 40, BestBidYes: 35},
		Metrics: model.DecisionMetrics{SpreadCost: 5, TrueProbability: p, Alpha: 10, ExpectedValue: 10},
	}, nil
}

func (f *fakeService) Metrics(ctx context.Context, ticker string, p float64) (*model.DecisionMetrics, error) {
	f.ticker, f.p = ticker, p
	if f.err != nil {
		return nil, f.err
	}
	return &model.DecisionMetrics{SpreadCost: 5, TrueProbability: p}, nil
}

func (f *fakeService) Estimate(ctx context.Context, ticker string) (*model.CombinedEstimate, error) {
	f.ticker = ticker
	if f.err != nil {
		return nil, f.err
	}
	return &model.CombinedEstimate{ProbabilityEstimate: model.ProbabilityEstimate{Probability: 0.6}}, nil
}

func (f *fakeService) TopMarkets(ctx context.Context, limit int) ([]model.MarketSummary, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []model.MarketSummary{{Ticker: "A"}, {Ticker: "B"}}, nil
}

func (f *fakeService) History(ctx context.Context, ticker string, days int) (*model.PriceHistory, error) {
	f.ticker, f.days = ticker, days
	if f.err != nil {
		return nil, f.err
	}
	return &model.PriceHistory{Ticker: ticker, Days: days}, nil
}

func (f *fakeService) RawHistory(ctx context.Context, ticker string, days int) (*api.CandlesticksResponse, error) {
	f.ticker, f.days = ticker, days
	if f.err != nil {
		return nil, f.err
	}
	return &api.CandlesticksResponse{Ticker: ticker, Candlesticks: []api.RawCandle{{"ts": 1}}}, nil
}

type fakeScanner struct {
	tickers []string
	p       float64
}

func (f *fakeScanner) Scan(ctx context.Context, tickers []string, p float64) scanner.Report {
	f.tickers, f.p = tickers, p
	return scanner.Report{Probability: p, Scanned: int64(len(tickers))}
}

type fakeStatus struct {
	resp *api.ExchangeStatusResponse
	err  error
}

func (f fakeStatus) GetExchangeStatus(ctx context.Context) (*api.ExchangeStatusResponse, error) {
	return f.resp, f.err
}

func do(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, body
}

func TestRoot(t *testing.T) {
	h := NewHandler(&fakeService{})

	rec, body := do(t, h, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("response has no X-Request-ID header")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := NewHandler(&fakeService{err: analysis.ErrInvalidProbability})

	req := httptest.NewRequest(http.MethodGet, "/analyze/ABC-1?true_prob=2", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want %q", got, "req-42")
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", body["request_id"])
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		status     StatusChecker
		wantCode   int
		wantStatus string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"active", fakeStatus{resp: &api.ExchangeStatusResponse{ExchangeActive: true, TradingActive: true}}, http.StatusOK, "healthy"},
		{"trading paused", fakeStatus{resp: &api.ExchangeStatusResponse{ExchangeActive: true}}, http.StatusOK, "degraded"},
		{"venue down", fakeStatus{err: &api.APIError{StatusCode: 503, Message: "down"}}, http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.status != nil {
				opts = append(opts, WithStatus(tt.status))
			}
			rec, body := do(t, NewHandler(&fakeService{}, opts...), "/health")

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantStatus != "" && body["status"] != tt.wantStatus {
				t.Errorf("status field = %v, want %q", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	svc := &fakeService{}
	rec, body := do(t, NewHandler(svc), "/analyze/ABC-1?true_prob=0.5")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if svc.ticker != "ABC-1" || svc.p != 0.5 {
		t.Errorf("service called with %q, %v, want ABC-1, 0.5", svc.ticker, svc.p)
	}
	if _, ok := body["market_data"]; !ok {
		t.Error("body has no market_data")
	}
	if _, ok := body["decision_metrics"]; !ok {
		t.Error("body has no decision_metrics")
	}
}

func TestQueryParams(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode int
		check    func(t *testing.T, svc *fakeService)
	}{
		{"analyze missing true_prob", "/analyze/ABC-1", http.StatusBadRequest, nil},
		{"analyze bad true_prob", "/analyze/ABC-1?true_prob=high", http.StatusBadRequest, nil},
		{"metrics missing true_prob", "/metrics/ABC-1", http.StatusBadRequest, nil},
		{"metrics ok", "/metrics/ABC-1?true_prob=0.25", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.p != 0.25 {
				t.Errorf("p = %v, want 0.25", svc.p)
			}
		}},
		{"markets default limit", "/markets", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.limit != DefaultMarketsLimit {
				t.Errorf("limit = %d, want %d", svc.limit, DefaultMarketsLimit)
			}
		}},
		{"markets explicit limit", "/markets?limit=5", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.limit != 5 {
				t.Errorf("limit = %d, want 5", svc.limit)
			}
		}},
		{"markets bad limit", "/markets?limit=ten", http.StatusBadRequest, nil},
		{"history default days", "/history/ABC-1", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.days != analysis.DefaultHistoryDays {
				t.Errorf("days = %d, want %d", svc.days, analysis.DefaultHistoryDays)
			}
		}},
		{"history days", "/history/ABC-1?days=7", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.ticker != "ABC-1" || svc.days != 7 {
				t.Errorf("called with %q, %d, want ABC-1, 7", svc.ticker, svc.days)
			}
		}},
		{"raw history", "/history/ABC-1/raw?days=3", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.days != 3 {
				t.Errorf("days = %d, want 3", svc.days)
			}
		}},
		{"market", "/market/KXBTC-25", http.StatusOK, func(t *testing.T, svc *fakeService) {
			if svc.ticker != "KXBTC-25" {
				t.Errorf("ticker = %q, want KXBTC-25", svc.ticker)
			}
		}},
		{"estimate", "/estimate/ABC-1", http.StatusOK, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec, _ := do(t, NewHandler(svc), tt.target)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, svc)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid probability", analysis.ErrInvalidProbability, http.StatusBadRequest},
		{"wrapped invalid argument", fmt.Errorf("history: %w", analysis.ErrInvalidArgument), http.StatusBadRequest},
		{"estimator unavailable", estimate.ErrUnavailable, http.StatusServiceUnavailable},
		{"venue not found", fmt.Errorf("snapshot: %w", &api.APIError{StatusCode: 404, Message: "not found"}), http.StatusNotFound},
		{"venue error", &api.APIError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"network failure", fmt.Errorf("%w: dial tcp", api.ErrTransport), http.StatusBadGateway},
		{"deadline", fmt.Errorf("%w: %w", api.ErrTransport, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, NewHandler(&fakeService{err: tt.err}), "/market/ABC-1")

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if body["error"] == nil || body["error"] == "" {
				t.Error("body has no error message")
			}
		})
	}
}

func TestErrorBody_UpstreamStatus(t *testing.T) {
	h := NewHandler(&fakeService{err: &api.APIError{StatusCode: 429, Message: "slow down"}})

	rec, body := do(t, h, "/estimate/ABC-1")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body["upstream_status"] != float64(429) {
		t.Errorf("upstream_status = %v, want 429", body["upstream_status"])
	}
	if body["retryable"] != true {
		t.Errorf("retryable = %v, want true", body["retryable"])
	}
	if got := rec.Header().Get("Retry-After"); got != retryAfterSeconds {
		t.Errorf("Retry-After = %q, want %q", got, retryAfterSeconds)
	}
}

func TestErrorBody_NotRetryable(t *testing.T) {
	h := NewHandler(&fakeService{err: &api.APIError{StatusCode: 403, Message: "forbidden"}})

	rec, body := do(t, h, "/market/ABC-1")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body["retryable"] != false {
		t.Errorf("retryable = %v, want false", body["retryable"])
	}
	if got := rec.Header().Get("Retry-After"); got != "" {
		t.Errorf("Retry-After = %q, want empty", got)
	}
}

func TestScan(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		rec, _ := do(t, NewHandler(&fakeService{}), "/scan?true_prob=0.5&tickers=A")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("explicit tickers", func(t *testing.T) {
		sc := &fakeScanner{}
		h := NewHandler(&fakeService{}, WithScanner(sc, nil))

		rec, body := do(t, h, "/scan?true_prob=0.6&tickers=A,%20B,,C")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
		}
		if fmt.Sprint(sc.tickers) != "[A B C]" {
			t.Errorf("tickers = %v, want [A B C]", sc.tickers)
		}
		if sc.p != 0.6 {
			t.Errorf("p = %v, want 0.6", sc.p)
		}
		if body["scanned"] != float64(3) {
			t.Errorf("scanned = %v, want 3", body["scanned"])
		}
	})

	t.Run("tickers from source", func(t *testing.T) {
		svc := &fakeService{}
		sc := &fakeScanner{}
		h := NewHandler(svc, WithScanner(sc, scanner.TopMarkets{Lister: svc, Limit: 2}))

		rec, _ := do(t, h, "/scan?true_prob=0.6")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if fmt.Sprint(sc.tickers) != "[A B]" {
			t.Errorf("tickers = %v, want [A B]", sc.tickers)
		}
		if svc.limit != 2 {
			t.Errorf("limit = %d, want 2", svc.limit)
		}
	})

	t.Run("no tickers and no source", func(t *testing.T) {
		h := NewHandler(&fakeService{}, WithScanner(&fakeScanner{}, nil))
		rec, _ := do(t, h, "/scan?true_prob=0.6")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("too many tickers", func(t *testing.T) {
		sc := &fakeScanner{}
		h := NewHandler(&fakeService{}, WithScanner(sc, nil))

		names := make([]string, MaxScanTickers+1)
		for i := range names {
			names[i] = fmt.Sprintf("T-%d", i)
		}
		rec, _ := do(t, h, "/scan?true_prob=0.5&tickers="+strings.Join(names, ","))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if sc.tickers != nil {
			t.Errorf("scanner called with %d tickers, want no call", len(sc.tickers))
		}
	})

	t.Run("ticker cap inclusive", func(t *testing.T) {
		sc := &fakeScanner{}
		h := NewHandler(&fakeService{}, WithScanner(sc, nil))

		names := make([]string, MaxScanTickers)
		for i := range names {
			names[i] = fmt.Sprintf("T-%d", i)
		}
		rec, _ := do(t, h, "/scan?true_prob=0.5&tickers="+strings.Join(names, ","))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if len(sc.tickers) != MaxScanTickers {
			t.Errorf("len(tickers) = %d, want %d", len(sc.tickers), MaxScanTickers)
		}
	})

	t.Run("missing probability", func(t *testing.T) {
		h := NewHandler(&fakeService{}, WithScanner(&fakeScanner{}, nil))
		rec, _ := do(t, h, "/scan?tickers=A")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestAnalyze_WithVenue runs the full path: gin → analysis.Service → api.Client → venue.
func TestAnalyze_WithVenue(t *testing.T) {
	routes := map[string]string{
		"/markets/ABC-1":           `{"market":{"ticker":"ABC-1","title":"Will ABC happen?","volume":1200,"open_interest":300,"close_time":"2025-12-31T23:59:59Z"}}`,
		"/markets/ABC-1/orderbook": `{"orderbook":{"yes":[[40,100]],"no":[[65,50]]}}`,
	}
	venue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
			return
		}
		w.Write([]byte(body))
	}))
	defer venue.Close()

	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc := analysis.NewService(api.NewClient(venue.URL, nil), analysis.WithClock(now))
	h := NewHandler(svc)

	rec, body := do(t, h, "/metrics/ABC-1?true_prob=0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if body["expected_value"] != float64(10) {
		t.Errorf("expected_value = %v, want 10", body["expected_value"])
	}
	if body["spread_cost"] != float64(5) {
		t.Errorf("spread_cost = %v, want 5", body["spread_cost"])
	}

	rec, _ = do(t, h, "/market/NOPE-1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown ticker status = %d, want 404", rec.Code)
	}

	rec, _ = do(t, h, "/analyze/ABC-1?true_prob=1.5")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range probability status = %d, want 400", rec.Code)
	}
}
