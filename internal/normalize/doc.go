// Package normalize turns raw venue payloads into canonical model values.
//
// Normalizers never fail on data shape. A value that survives no fallback is
// defaulted; snapshot fields defaulted this way are listed in
// MarketSnapshot.LowConfidence. Candles without a time anchor are dropped.
//
// Fallback chains are ordered accessor tables evaluated first-match-wins, so
// schema drift on the venue side is handled by editing one table.
package normalize
