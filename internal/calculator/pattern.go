package calculator

import "math"

// Engulfing flags a body that fully covers the prior opposite-colored body:
// +1 bullish, -1 bearish, 0 otherwise.
func Engulfing(opens, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		po, pc := opens[i-1], closes[i-1]
		o, c := opens[i], closes[i]
		switch {
		case pc < po && c > o && o <= pc && c >= po && c-o > po-pc:
			out[i] = 1
		case pc > po && c < o && o >= pc && c <= po && o-c > pc-po:
			out[i] = -1
		}
	}
	return out
}

// PinBar flags a long-wick rejection candle: body at most a third of the
// range, one wick at least twice the body and the other at most a quarter of
// the range. +1 for a long lower wick, -1 for a long upper wick.
func PinBar(opens, highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		rng := highs[i] - lows[i]
		if rng <= 0 {
			continue
		}
		body := math.Abs(closes[i] - opens[i])
		if body > rng/3 {
			continue
		}
		top := math.Max(opens[i], closes[i])
		bottom := math.Min(opens[i], closes[i])
		upper := highs[i] - top
		lower := bottom - lows[i]
		switch {
		case lower >= 2*body && lower > 0 && upper <= rng/4:
			out[i] = 1
		case upper >= 2*body && upper > 0 && lower <= rng/4:
			out[i] = -1
		}
	}
	return out
}

// BodyRatio is the signed body over range of a candle, in [-1, 1].
func BodyRatio(open, high, low, close float64) float64 {
	rng := high - low
	if rng <= 0 {
		return 0
	}
	return (close - open) / rng
}
