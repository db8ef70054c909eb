package calculator

import (
	"math"

	"github.com/markcheno/go-talib"

	"MarketLens/internal/model"
)

// Range windows.
const (
	DonchianPeriod    = 20
	DrawdownPeriod    = 90
	RealizedVolPeriod = 20
	RealizedVolMin    = 5
	ROCPeriod         = 10
)

// Donchian returns the highest high and lowest low of the previous period
// bars, excluding the current one so a close can break out of it.
func Donchian(highs, lows []float64, period int) (upper, lower []float64) {
	n := len(highs)
	upper, lower = model.NaNs(n), model.NaNs(n)
	if period < 2 || n <= period {
		return upper, lower
	}
	hi := talib.Max(highs, period)
	lo := talib.Min(lows, period)
	for i := period; i < n; i++ {
		upper[i] = hi[i-1]
		lower[i] = lo[i-1]
	}
	return upper, lower
}

// Drawdown is the percent distance of close below its rolling max over
// period bars (expanding until the window fills). Values are <= 0.
func Drawdown(closes []float64, period int) []float64 {
	n := len(closes)
	out := model.NaNs(n)
	if n == 0 || period <= 0 {
		return out
	}
	var rolling []float64
	if period >= 2 && n >= period {
		rolling = talib.Max(closes, period)
	}
	peak := math.Inf(-1)
	for i, c := range closes {
		top := 0.0
		if i >= period-1 && rolling != nil {
			top = rolling[i]
		} else {
			peak = math.Max(peak, c)
			top = peak
		}
		if top > 0 {
			out[i] = (c/top - 1) * 100
		}
	}
	return out
}

// RealizedVolatility is the rolling std of log returns, in percent.
func RealizedVolatility(closes []float64, period, minPeriods int) []float64 {
	rets := model.NaNs(len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i] > 0 && closes[i-1] > 0 {
			rets[i] = math.Log(closes[i] / closes[i-1])
		}
	}
	out := rollingStd(rets, period, minPeriods)
	for i := range out {
		out[i] *= 100
	}
	return out
}
