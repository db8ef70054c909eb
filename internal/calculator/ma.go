package calculator

import (
	"github.com/markcheno/go-talib"

	"MarketLens/internal/model"
)

// EMA returns the recursive (adjust=false) exponential moving average of
// values. Rows before period-1 are NaN.
func EMA(values []float64, period int) []float64 {
	if period <= 0 {
		return model.NaNs(len(values))
	}
	return mask(ewm(values, period), period-1)
}

// SMA returns the simple moving average with full windows only.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return model.NaNs(len(values))
	}
	return mask(talib.Sma(values, period), period-1)
}

// ROC returns the percent rate of change over period bars.
func ROC(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return model.NaNs(len(values))
	}
	return mask(talib.Roc(values, period), period)
}
