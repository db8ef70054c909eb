package strategy

import (
	"math"
	"sort"
	"time"

	"MarketLens/internal/model"
)

// Regime thresholds.
const (
	BreakoutBuffer    = 1.005
	BreakdownBuffer   = 0.995
	SqueezePercentile = 20.0
	SqueezeMinSamples = 60
	SqueezeLookback   = 90 * 24 * time.Hour
	VolumeSpikeZ      = 2.0
	RSIOverbought     = 70.0
	RSIOversold       = 30.0
)

// Classify derives regime labels from the latest row. trailing is the frame
// the row came from, ending with that row; it supplies the squeeze window
// and the previous MACD histogram value.
func Classify(latest model.Row, trailing *model.Frame) model.RegimeSignals {
	sig := model.RegimeSignals{
		Regime:    model.RegimeRange,
		RSIState:  model.RSINeutral,
		MACDCross: model.CrossNone,
	}
	price := latest.Close
	ema20, ema50, ema200 := latest.Get(model.ColEMA20), latest.Get(model.ColEMA50), latest.Get(model.ColEMA200)
	if finite(ema20) && finite(ema50) && finite(ema200) {
		switch {
		case price > ema200 && ema20 > ema50 && ema50 > ema200:
			sig.Regime = model.RegimeUptrend
		case price < ema200 && ema20 < ema50 && ema50 < ema200:
			sig.Regime = model.RegimeDowntrend
		}
	}

	if h := latest.Get(model.ColHigh20); finite(h) && price > BreakoutBuffer*h {
		sig.Breakout = true
	}
	if l := latest.Get(model.ColLow20); finite(l) && price < BreakdownBuffer*l {
		sig.Breakdown = true
	}
	if z := latest.Get(model.ColVolZ); finite(z) && z >= VolumeSpikeZ {
		sig.VolumeSpike = true
	}
	if r := latest.Get(model.ColRSI); finite(r) {
		switch {
		case r >= RSIOverbought:
			sig.RSIState = model.RSIOverbought
		case r <= RSIOversold:
			sig.RSIState = model.RSIOversold
		}
	}

	if trailing != nil && trailing.Len() >= 2 {
		prev := trailing.MACDHist[trailing.Len()-2]
		cur := latest.Get(model.ColMACDHist)
		if finite(prev) && finite(cur) {
			switch {
			case prev < 0 && cur > 0:
				sig.MACDCross = model.CrossBull
			case prev > 0 && cur < 0:
				sig.MACDCross = model.CrossBear
			}
		}
		sig.Squeeze = squeeze(latest.Get(model.ColBBWidth), trailing)
	}
	return sig
}

// squeeze reports whether width is at or below the 20th percentile of
// bb_width over roughly the last 90 days of bars.
func squeeze(width float64, f *model.Frame) bool {
	if !finite(width) {
		return false
	}
	bars := f.Len()
	if spacing := barSpacing(f); spacing > 0 {
		bars = min(bars, int(SqueezeLookback/spacing))
	}
	var samples []float64
	for _, w := range f.BBWidth[f.Len()-bars:] {
		if finite(w) {
			samples = append(samples, w)
		}
	}
	if len(samples) < SqueezeMinSamples {
		return false
	}
	return width <= percentile(samples, SqueezePercentile)
}

// barSpacing is the median gap between recent bars.
func barSpacing(f *model.Frame) time.Duration {
	n := f.Len()
	if n < 2 {
		return 0
	}
	start := max(1, n-50)
	gaps := make([]time.Duration, 0, n-start)
	for i := start; i < n; i++ {
		gaps = append(gaps, f.Candles[i].Time.Sub(f.Candles[i-1].Time))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
