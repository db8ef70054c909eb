package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// ewm is the recursive exponential mean with alpha = 2/(span+1), seeded
// with the first finite value. NaN inputs carry the previous mean forward.
func ewm(values []float64, span int) []float64 {
	out := model.NaNs(len(values))
	alpha := 2.0 / (float64(span) + 1.0)
	prev := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// rollingMean averages the finite values in each trailing window, requiring
// at least minPeriods of them.
func rollingMean(values []float64, window, minPeriods int) []float64 {
	out := model.NaNs(len(values))
	for i := range values {
		sum, n := 0.0, 0
		for j := max(0, i-window+1); j <= i; j++ {
			if !math.IsNaN(values[j]) {
				sum += values[j]
				n++
			}
		}
		if n >= minPeriods && n > 0 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// rollingStd is the sample (n-1) standard deviation over each trailing window.
func rollingStd(values []float64, window, minPeriods int) []float64 {
	out := model.NaNs(len(values))
	mean := rollingMean(values, window, minPeriods)
	for i := range values {
		if math.IsNaN(mean[i]) {
			continue
		}
		ss, n := 0.0, 0
		for j := max(0, i-window+1); j <= i; j++ {
			if !math.IsNaN(values[j]) {
				d := values[j] - mean[i]
				ss += d * d
				n++
			}
		}
		if n < 2 {
			continue
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

// rollingSum sums full windows only.
func rollingSum(values []float64, window int) []float64 {
	out := model.NaNs(len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum
	}
	return out
}

// mask sets out[0:n] to NaN.
func mask(values []float64, n int) []float64 {
	for i := 0; i < n && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
