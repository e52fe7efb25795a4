package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatallahx/before-you-bet/internal/analysis"
	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/model"
	"github.com/gatallahx/before-you-bet/internal/scanner"
	"github.com/gatallahx/before-you-bet/internal/version"
)

// Query limits.
const (
	// DefaultMarketsLimit is the /markets page size when limit is omitted.
	DefaultMarketsLimit = analysis.DefaultMarketsLimit
	// MaxScanTickers caps the tickers one /scan request may name.
	MaxScanTickers = api.MaxMarketsLimit
)

var errScanUnavailable = errors.New("scanner not configured")

// Service is the analysis surface the handler serves.
type Service interface {
	Snapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error)
	Analyze(ctx context.Context, ticker string, p float64) (*model.Analysis, error)
	Metrics(ctx context.Context, ticker string, p float64) (*model.DecisionMetrics, error)
	Estimate(ctx context.Context, ticker string) (*model.CombinedEstimate, error)
	TopMarkets(ctx context.Context, limit int) ([]model.MarketSummary, error)
	History(ctx context.Context, ticker string, days int) (*model.PriceHistory, error)
	RawHistory(ctx context.Context, ticker string, days int) (*api.CandlesticksResponse, error)
}

// StatusChecker reports exchange availability.
type StatusChecker interface {
	GetExchangeStatus(ctx context.Context) (*api.ExchangeStatusResponse, error)
}

// BatchScanner analyzes many tickers at once.
type BatchScanner interface {
	Scan(ctx context.Context, tickers []string, p float64) scanner.Report
}

// Handler routes HTTP requests to the analysis service.
type Handler struct {
	router  *gin.Engine
	svc     Service
	status  StatusChecker
	scanner BatchScanner
	source  scanner.TickerSource
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithStatus enables exchange checks on /health.
func WithStatus(s StatusChecker) Option {
	return func(h *Handler) {
		h.status = s
	}
}

// WithScanner enables /scan. source supplies tickers when the request names none.
func WithScanner(s BatchScanner, source scanner.TickerSource) Option {
	return func(h *Handler) {
		h.scanner = s
		h.source = source
	}
}

// WithLogger sets the access and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a Handler with all routes registered.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(h.logger))
	h.router = router
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/", h.root)
	h.router.GET("/health", h.health)
	h.router.GET("/markets", h.getMarkets)
	h.router.GET("/market/:ticker", h.getMarket)
	h.router.GET("/analyze/:ticker", h.analyze)
	h.router.GET("/metrics/:ticker", h.metrics)
	h.router.GET("/estimate/:ticker", h.estimate)

	history := h.router.Group("/history/:ticker")
	{
		history.GET("", h.history)
		history.GET("/raw", h.rawHistory)
	}

	h.router.GET("/scan", h.scan)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Before You Bet API",
		"version": version.Version,
	})
}

func (h *Handler) health(c *gin.Context) {
	if h.status == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	st, err := h.status.GetExchangeStatus(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := "healthy"
	if !st.ExchangeActive || !st.TradingActive {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          status,
		"exchange_active": st.ExchangeActive,
		"trading_active":  st.TradingActive,
	})
}

func (h *Handler) getMarkets(c *gin.Context) {
	limit, err := intQuery(c, "limit", DefaultMarketsLimit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	markets, err := h.svc.TopMarkets(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, markets)
}

func (h *Handler) getMarket(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) analyze(c *gin.Context) {
	p, err := probabilityQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	a, err := h.svc.Analyze(c.Request.Context(), c.Param("ticker"), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) metrics(c *gin.Context) {
	p, err := probabilityQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	m, err := h.svc.Metrics(c.Request.Context(), c.Param("ticker"), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) estimate(c *gin.Context) {
	est, err := h.svc.Estimate(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *Handler) history(c *gin.Context) {
	days, err := intQuery(c, "days", analysis.DefaultHistoryDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	hist, err := h.svc.History(c.Request.Context(), c.Param("ticker"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handler) rawHistory(c *gin.Context) {
	days, err := intQuery(c, "days", analysis.DefaultHistoryDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	raw, err := h.svc.RawHistory(c.Request.Context(), c.Param("ticker"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raw)
}

func (h *Handler) scan(c *gin.Context) {
	if h.scanner == nil {
		h.writeError(c, errScanUnavailable)
		return
	}

	p, err := probabilityQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	tickers := splitTickers(c.Query("tickers"))
	if len(tickers) > MaxScanTickers {
		h.writeError(c, fmt.Errorf("%w: at most %d tickers per scan, got %d", analysis.ErrInvalidArgument, MaxScanTickers, len(tickers)))
		return
	}
	if len(tickers) == 0 {
		if h.source == nil {
			h.writeError(c, missingParam("tickers"))
			return
		}
		if tickers, err = h.source.Tickers(c.Request.Context()); err != nil {
			h.writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, h.scanner.Scan(c.Request.Context(), tickers, p))
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
