package calculator

import "math"

// Bollinger band parameters.
const (
	BollingerPeriod     = 20
	BollingerK          = 2.0
	BollingerMinPeriods = 5
)

// Bands holds Bollinger columns. Width is (upper-lower)/mid in percent.
type Bands struct {
	Upper []float64
	Mid   []float64
	Lower []float64
	Width []float64
}

// Bollinger computes mid = SMA(period) and mid ± k·std, using partial windows
// once minPeriods values are available.
func Bollinger(closes []float64, period int, k float64, minPeriods int) Bands {
	mid := rollingMean(closes, period, minPeriods)
	std := rollingStd(closes, period, minPeriods)
	b := Bands{
		Upper: make([]float64, len(closes)),
		Mid:   mid,
		Lower: make([]float64, len(closes)),
		Width: make([]float64, len(closes)),
	}
	for i := range closes {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			b.Upper[i], b.Lower[i], b.Width[i] = math.NaN(), math.NaN(), math.NaN()
			b.Mid[i] = math.NaN()
			continue
		}
		b.Upper[i] = mid[i] + k*std[i]
		b.Lower[i] = mid[i] - k*std[i]
		if mid[i] == 0 {
			b.Width[i] = 0
			continue
		}
		b.Width[i] = (b.Upper[i] - b.Lower[i]) / mid[i] * 100
	}
	return b
}
