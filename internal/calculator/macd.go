package calculator

// MACD periods.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDWarmup is the number of leading rows left NaN in all three MACD columns.
const MACDWarmup = MACDSlow - 1

// MACD returns line = EMA(fast) - EMA(slow), signal = EMA(signal) of line and
// hist = line - signal.
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, hist []float64) {
	fastEMA := ewm(closes, fast)
	slowEMA := ewm(closes, slow)
	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signal = ewm(line, signalPeriod)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}
	warm := slow - 1
	return mask(line, warm), mask(signal, warm), mask(hist, warm)
}
