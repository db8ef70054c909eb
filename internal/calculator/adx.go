package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// ATRPeriod and ADXPeriod are the true-range smoothing windows.
const (
	ATRPeriod = 14
	ADXPeriod = 14
)

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first
// bar uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		pc := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(highs[i]-pc), math.Abs(lows[i]-pc)))
	}
	return out
}

// ATR is the rolling mean of true range over full windows.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return rollingMean(TrueRange(highs, lows, closes), period, period)
}

// DirectionalIndex holds the ADX columns.
type DirectionalIndex struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes +DI/-DI from period sums of directional movement and true
// range, DX from their spread, and ADX as the rolling mean of DX.
func ADX(highs, lows, closes []float64, period int) DirectionalIndex {
	n := len(closes)
	di := DirectionalIndex{ADX: model.NaNs(n), PlusDI: model.NaNs(n), MinusDI: model.NaNs(n)}
	if n < 2 || period <= 0 {
		return di
	}

	tr := TrueRange(highs, lows, closes)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	trs := tr[1:]
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}
	sumPlus := rollingSum(plusDM, period)
	sumMinus := rollingSum(minusDM, period)
	sumTR := rollingSum(trs, period)

	dx := model.NaNs(n)
	for j := range sumTR {
		if math.IsNaN(sumTR[j]) {
			continue
		}
		i := j + 1
		if sumTR[j] <= Epsilon {
			di.PlusDI[i], di.MinusDI[i], dx[i] = 0, 0, 0
			continue
		}
		p := 100 * sumPlus[j] / sumTR[j]
		m := 100 * sumMinus[j] / sumTR[j]
		di.PlusDI[i], di.MinusDI[i] = p, m
		if p+m <= Epsilon {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(p-m) / (p + m)
	}
	di.ADX = rollingMean(dx, period, period)
	return di
}
