// Package analysis is the request-scoped service behind both binaries. It
// fetches venue payloads, normalizes them and derives decision metrics.
//
// Market and orderbook for one ticker are fetched concurrently and joined
// before normalization. Every call builds fresh values; the Service holds no
// mutable state and is safe for concurrent use.
package analysis
