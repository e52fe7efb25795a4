// Package model defines the canonical entities shared across the analyzer.
//
// Every value is built fresh per request and never cached.
//
// Conventions:
//   - Prices: float64 cents on the 0-100 scale of a binary contract
//   - Probabilities: float64 in [0, 1]
//   - Timestamps: time.Time in UTC
//   - Volumes and open interest: non-negative int64 contract counts
package model
