package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// Epsilon floors divisors that may legitimately reach zero.
const Epsilon = 1e-12

// RSI computes RSI with span-smoothed (alpha = 2/(period+1)) average gains
// and losses. A window with neither gains nor losses reads 50. Rows before
// period are NaN.
func RSI(closes []float64, period int) []float64 {
	out := model.NaNs(len(closes))
	if period <= 0 || len(closes) < 2 {
		return out
	}
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gains[i-1] = math.Max(d, 0)
		losses[i-1] = math.Max(-d, 0)
	}
	avgGain := ewm(gains, period)
	avgLoss := ewm(losses, period)
	for i := period; i < len(closes); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		if g < Epsilon && l < Epsilon {
			out[i] = 50
			continue
		}
		rs := g / math.Max(l, Epsilon)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
