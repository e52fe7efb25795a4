// Package scanner analyzes many markets at one probability estimate.
//
// The Scanner:
//   - Analyzes a batch of tickers with bounded concurrency
//   - Reports per-ticker failures without aborting the batch
//   - Ranks successful analyses by expected value
//   - Optionally re-scans a ticker source on an interval
package scanner
