// Package llm implements the probability estimator and trend predictor on
// top of an OpenAI-compatible chat completions API.
//
// The estimator asks for a schema-constrained JSON object. The predictor
// sends the most recent raw candles and parses a JSON reply, tolerating
// markdown fences and missing fields.
package llm
