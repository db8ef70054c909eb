package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MarketLens/internal/model"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePoints handles [[ts, price]], [[ts, price, volume]] and
// [[ts, open, high, low, close, volume, ...]] arrays.
func parsePoints(items []any) ([]row, error) {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		arr, ok := item.([]any)
		if !ok || len(arr) < 2 {
			return nil, fmt.Errorf("%w: point is not a [ts, value] array", model.ErrUnknownPayload)
		}
		t, ok := toTime(arr[0])
		if !ok {
			continue
		}
		r := row{t: t}
		switch {
		case len(arr) >= 5:
			r.open, _ = toFloat(arr[1])
			r.high, _ = toFloat(arr[2])
			r.low, _ = toFloat(arr[3])
			r.close = floatOrNaN(arr[4])
			if len(arr) >= 6 {
				r.volume, _ = toFloat(arr[5])
			}
			r.hasOHLC = true
		default:
			r.close = floatOrNaN(arr[1])
			if len(arr) == 3 {
				r.volume, _ = toFloat(arr[2])
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// parseRecords handles arrays of keyed candle objects.
func parseRecords(items []any) ([]row, error) {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: mixed record types", model.ErrUnknownPayload)
		}
		rawTime, ok := lookup(obj, "time", "timestamp", "t", "date", "open_time", "openTime")
		if !ok {
			return nil, fmt.Errorf("%w: record without time field", model.ErrUnknownPayload)
		}
		rawClose, ok := lookup(obj, "close", "c", "price")
		if !ok {
			return nil, fmt.Errorf("%w: record without close field", model.ErrUnknownPayload)
		}
		t, ok := toTime(rawTime)
		if !ok {
			continue
		}
		r := row{t: t, close: floatOrNaN(rawClose)}
		o, okO := lookupFloat(obj, "open", "o")
		h, okH := lookupFloat(obj, "high", "h")
		l, okL := lookupFloat(obj, "low", "l")
		if okO && okH && okL {
			r.open, r.high, r.low, r.hasOHLC = o, h, l, true
		}
		r.volume, _ = lookupFloat(obj, "volume", "v", "vol")
		if mc, ok := lookupFloat(obj, "market_cap", "marketCap", "mcap"); ok {
			r.marketCap = &mc
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// parseMarketChart joins the prices, total_volumes and market_caps arrays by timestamp.
func parseMarketChart(obj map[string]any) ([]row, error) {
	prices, ok := obj["prices"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: prices is not an array", model.ErrUnknownPayload)
	}
	volumes := pointIndex(obj["total_volumes"])
	caps := pointIndex(obj["market_caps"])

	rows, err := parsePoints(prices)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		key := rows[i].t.UnixMilli()
		if v, ok := volumes[key]; ok {
			rows[i].volume = v
		}
		if c, ok := caps[key]; ok {
			c := c
			rows[i].marketCap = &c
		}
	}
	return rows, nil
}

func pointIndex(raw any) map[int64]float64 {
	out := make(map[int64]float64)
	items, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		arr, ok := item.([]any)
		if !ok || len(arr) < 2 {
			continue
		}
		t, ok := toTime(arr[0])
		if !ok {
			continue
		}
		if v, ok := toFloat(arr[1]); ok {
			out[t.UnixMilli()] = v
		}
	}
	return out
}

func lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupFloat(obj map[string]any, keys ...string) (float64, bool) {
	v, ok := lookup(obj, keys...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// toFloat accepts JSON numbers and numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		return parseDecimal(n.String())
	case string:
		return parseDecimal(strings.TrimSpace(n))
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func floatOrNaN(v any) float64 {
	f, ok := toFloat(v)
	if !ok {
		return math.NaN()
	}
	return f
}

// toTime accepts epoch seconds, epoch milliseconds and ISO-8601 strings.
func toTime(v any) (time.Time, bool) {
	if f, ok := toFloat(v); ok {
		if !finite(f) || f <= 0 {
			return time.Time{}, false
		}
		if f < secondsCutoff {
			sec, frac := math.Modf(f)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
		}
		return time.UnixMilli(int64(f)).UTC(), true
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
