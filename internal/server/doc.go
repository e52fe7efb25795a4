// Package server exposes market analysis over HTTP using gin.
//
// Routes:
//
//	GET /                        liveness
//	GET /health                  exchange status
//	GET /markets?limit=N         top open markets by volume
//	GET /market/:ticker          normalized snapshot
//	GET /analyze/:ticker         snapshot and metrics (true_prob required)
//	GET /metrics/:ticker         metrics only (true_prob required)
//	GET /estimate/:ticker        combined probability and trend estimate
//	GET /history/:ticker?days=N  normalized candles with price change
//	GET /history/:ticker/raw     venue candle payload, unmodified
//	GET /scan?true_prob=P        batch analysis (tickers=A,B or top markets)
//
// Errors are JSON objects {"error": ..., "request_id": ...}.
package server
