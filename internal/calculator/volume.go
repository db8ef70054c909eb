package calculator

import (
	"math"

	"github.com/markcheno/go-talib"

	"MarketLens/internal/model"
)

// Volume z-score parameters.
const (
	VolZWindow     = 48
	VolZMinPeriods = 12
	VolZClip       = 5.0
)

// OBV is the cumulative sum of sign(close change)·volume, starting at 0.
func OBV(closes, volumes []float64) []float64 {
	if len(closes) == 0 {
		return nil
	}
	out := talib.Obv(closes, volumes)
	base := volumes[0]
	for i := range out {
		out[i] -= base
	}
	return out
}

// VolumeZScore is (volume - rolling mean) / rolling std, clipped to ±clip.
// A zero deviation window reads 0.
func VolumeZScore(volumes []float64, window, minPeriods int, clip float64) []float64 {
	mean := rollingMean(volumes, window, minPeriods)
	std := rollingStd(volumes, window, minPeriods)
	out := model.NaNs(len(volumes))
	for i, v := range volumes {
		if math.IsNaN(mean[i]) {
			continue
		}
		if math.IsNaN(std[i]) || std[i] <= Epsilon {
			out[i] = 0
			continue
		}
		out[i] = math.Max(-clip, math.Min(clip, (v-mean[i])/std[i]))
	}
	return out
}

// VolumeRatio is the latest volume over the mean of the previous period
// volumes; NaN when that mean is zero or unavailable.
func VolumeRatio(volumes []float64, period int) float64 {
	n := len(volumes)
	if n < 2 {
		return math.NaN()
	}
	start := max(0, n-1-period)
	sum := 0.0
	for _, v := range volumes[start : n-1] {
		sum += v
	}
	avg := sum / float64(n-1-start)
	if avg <= Epsilon {
		return math.NaN()
	}
	return volumes[n-1] / avg
}
