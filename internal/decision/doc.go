// Package decision computes trading metrics for a binary contract from a
// market snapshot and a probability estimate.
//
// All functions are pure. Prices are cents on the 0-100 scale, probabilities
// are in [0, 1]. Degenerate costs resolve to 0 rather than an error.
package decision
