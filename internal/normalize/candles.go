package normalize

import (
	"encoding/json"
	"slices"
	"sort"
	"time"

	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/model"
)

// Candle timestamp fields, in preference order. Values are Unix seconds.
var timestampKeys = []string{"end_period_ts", "start_period_ts", "ts"}

// priceField lists the raw field names that may carry one OHLC component.
type priceField struct {
	component string
	synonyms  []string
}

var (
	openField  = priceField{"open", []string{"open", "open_price", "yes_open", "price_open", "open_yes"}}
	highField  = priceField{"high", []string{"high", "high_price", "yes_high", "price_high", "high_yes"}}
	lowField   = priceField{"low", []string{"low", "low_price", "yes_low", "price_low", "low_yes"}}
	closeField = priceField{"close", []string{"close", "close_price", "yes_close", "price_close", "close_yes", "price", "yes_price"}}
)

// resolve returns the first synonym that yields a price, or 0 (unset).
func (f priceField) resolve(raw api.RawCandle) float64 {
	for _, name := range f.synonyms {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		if n, ok := numeric(v); ok {
			return n
		}
		if nested, ok := v.(map[string]any); ok {
			if n, ok := f.searchNested(name, nested); ok {
				return n
			}
		}
	}
	return 0
}

// searchNested looks inside an object such as {"close": 10, "close_dollars": "0.1000"}.
func (f priceField) searchNested(name string, obj map[string]any) (float64, bool) {
	for _, key := range []string{"price", "cents", f.component, name, "value"} {
		if n, ok := numeric(obj[key]); ok {
			return n, true
		}
	}

	if s, ok := obj[f.component+"_dollars"].(string); ok {
		if n, ok := DollarsToCents(s); ok {
			return n, true
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if n, ok := numeric(obj[k]); ok {
			return n, true
		}
	}

	return 0, false
}

// candleTime resolves the time anchor. Zero and absent values are skipped.
func candleTime(raw api.RawCandle) (time.Time, bool) {
	for _, key := range timestampKeys {
		if n, ok := numeric(raw[key]); ok {
			if t, ok := unixSeconds(n); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func candleVolume(raw api.RawCandle) int64 {
	switch v := raw["volume"].(type) {
	case json.Number:
		return count(v)
	default:
		n, ok := numeric(v)
		if !ok || n < 0 {
			return 0
		}
		return int64(n)
	}
}

// NormalizeCandle converts one raw candle. It returns false when the record
// has no usable timestamp.
func NormalizeCandle(raw api.RawCandle) (model.Candle, bool) {
	t, ok := candleTime(raw)
	if !ok {
		return model.Candle{}, false
	}

	c := model.Candle{
		Time:   t,
		Open:   openField.resolve(raw),
		High:   highField.resolve(raw),
		Low:    lowField.resolve(raw),
		Close:  closeField.resolve(raw),
		Volume: candleVolume(raw),
	}

	// Flat candle
	if c.Close > 0 {
		if c.Open == 0 {
			c.Open = c.Close
		}
		if c.High == 0 {
			c.High = c.Close
		}
		if c.Low == 0 {
			c.Low = c.Close
		}
	}

	return c, true
}

// NormalizeCandles converts raw candles into a series sorted by time.
// Records without a timestamp are dropped.
func NormalizeCandles(raw []api.RawCandle) model.CandleSeries {
	series := make(model.CandleSeries, 0, len(raw))
	for _, r := range raw {
		if c, ok := NormalizeCandle(r); ok {
			series = append(series, c)
		}
	}

	slices.SortStableFunc(series, func(a, b model.Candle) int {
		return a.Time.Compare(b.Time)
	})

	return series
}
