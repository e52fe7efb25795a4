package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DollarsToCents converts a dollar string to cents.
// "0.52" -> 52, "0.5250" -> 52.5. Returns false for empty or invalid input.
func DollarsToCents(dollars string) (float64, bool) {
	dollars = strings.TrimSpace(dollars)
	if dollars == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(dollars)
	if err != nil {
		return 0, false
	}

	return d.Mul(hundred).InexactFloat64(), true
}

// ParseTime parses a venue timestamp: an ISO-8601 string or numeric Unix
// seconds. Returns false for absent, null, zero or unparseable input.
func ParseTime(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		return ParseISOTime(s)
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	return unixSeconds(f)
}

// ParseISOTime parses an ISO-8601 timestamp. A trailing "Z" is rewritten to
// an explicit "+00:00" offset; a timestamp without an offset is taken as UTC.
func ParseISOTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05.999999999", s)
		if err != nil {
			return time.Time{}, false
		}
	}

	return t.UTC(), true
}

func unixSeconds(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// count converts a venue count to a non-negative integer. Fractional counts
// are truncated; absent or invalid input is 0.
func count(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return max(i, 0)
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return max(int64(f), 0)
}

// numeric reports the float value of a decoded JSON scalar.
// Strings and booleans are not numeric.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
