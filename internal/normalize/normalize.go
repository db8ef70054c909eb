// Package normalize turns provider payloads into canonical candle series.
//
// Three payload shapes are accepted:
//
//	(a) [[ts, price], ...] or [[ts, open, high, low, close, volume], ...],
//	    plus the {prices, total_volumes, market_caps} market-chart object
//	(b) [{time, open, high, low, close, volume}, ...]
//	(c) a DEX pair object with nested priceChange/liquidity/volume
//
// Anything else is rejected with model.ErrUnknownPayload.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"MarketLens/internal/model"
)

// secondsCutoff separates epoch seconds from epoch milliseconds.
const secondsCutoff = 1e10

// row is a parsed, not yet validated observation.
type row struct {
	t         time.Time
	open      float64
	high      float64
	low       float64
	close     float64
	volume    float64
	marketCap *float64
	hasOHLC   bool
}

// Normalize detects the payload shape and returns a cleaned series.
func Normalize(symbol, source string, payload []byte) (model.Series, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, model.ErrEmptySeries)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return model.Series{}, fmt.Errorf("normalize %s: %w: %v", symbol, model.ErrUnknownPayload, err)
	}

	switch v := doc.(type) {
	case []any:
		if len(v) == 0 {
			return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, model.ErrEmptySeries)
		}
		switch v[0].(type) {
		case []any:
			rows, err := parsePoints(v)
			if err != nil {
				return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, err)
			}
			return build(symbol, source, rows, nil)
		case map[string]any:
			rows, err := parseRecords(v)
			if err != nil {
				return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, err)
			}
			return build(symbol, source, rows, nil)
		}
	case map[string]any:
		if _, ok := v["prices"]; ok {
			rows, err := parseMarketChart(v)
			if err != nil {
				return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, err)
			}
			return build(symbol, source, rows, nil)
		}
		if pair, ok := pairObject(v); ok {
			info := pairInfo(pair)
			return build(symbol, source, pairAnchors(info, now().UTC()), &info)
		}
	}
	return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, model.ErrUnknownPayload)
}

// FromCandles cleans already-typed candles with the same rules as Normalize.
// Candles whose open, high and low are all zero are treated as close-only.
func FromCandles(symbol, source string, candles []model.Candle) (model.Series, error) {
	rows := make([]row, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, row{
			t:         c.Time,
			open:      c.Open,
			high:      c.High,
			low:       c.Low,
			close:     c.Close,
			volume:    c.Volume,
			marketCap: c.MarketCap,
			hasOHLC:   c.Open != 0 || c.High != 0 || c.Low != 0,
		})
	}
	return build(symbol, source, rows, nil)
}

var now = time.Now

func build(symbol, source string, rows []row, pair *model.PairInfo) (model.Series, error) {
	rows = clean(rows)
	if len(rows) == 0 {
		return model.Series{}, fmt.Errorf("normalize %s: %w", symbol, model.ErrEmptySeries)
	}
	if len(rows) < model.MinRows {
		return model.Series{}, fmt.Errorf("normalize %s: %d rows: %w", symbol, len(rows), model.ErrInsufficientHistory)
	}

	s := model.Series{Symbol: symbol, Source: source, Pair: pair, Candles: make([]model.Candle, len(rows))}
	for i, r := range rows {
		c := model.Candle{Time: r.t, Close: r.close, Volume: r.volume, MarketCap: r.marketCap}
		if r.hasOHLC {
			c.Open, c.High, c.Low = r.open, r.high, r.low
		} else {
			s.Synthetic = true
			c.Open = r.close
			if i > 0 {
				c.Open = rows[i-1].close
			}
			c.High = math.Max(c.Open, c.Close)
			c.Low = math.Min(c.Open, c.Close)
		}
		s.Candles[i] = c
	}
	return s, nil
}

// clean drops rows with an unusable close, sorts by time and keeps the last
// occurrence of each timestamp.
func clean(rows []row) []row {
	valid := make([]row, 0, len(rows))
	for _, r := range rows {
		if !finitePositive(r.close) || r.t.IsZero() {
			continue
		}
		r.t = r.t.UTC()
		if !finite(r.volume) || r.volume < 0 {
			r.volume = 0
		}
		if r.marketCap != nil && (!finite(*r.marketCap) || *r.marketCap < 0) {
			r.marketCap = nil
		}
		if r.hasOHLC && !(finitePositive(r.open) && finitePositive(r.high) && finitePositive(r.low)) {
			r.hasOHLC = false
		}
		valid = append(valid, r)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].t.Before(valid[j].t) })

	out := valid[:0]
	for _, r := range valid {
		if n := len(out); n > 0 && out[n-1].t.Equal(r.t) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func finitePositive(v float64) bool { return finite(v) && v > 0 }
