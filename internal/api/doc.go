// Package api provides the Kalshi REST client used for market data.
//
// REST endpoints:
//   - Production: https://api.elections.kalshi.com/trade-api/v2
//   - Demo: https://demo-api.kalshi.co/trade-api/v2
//
// Every request is signed individually and issued exactly once; payloads are
// returned close to their wire shape and normalized by package normalize.
package api
