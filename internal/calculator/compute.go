// Package calculator derives indicator columns from a normalized series.
// Every function is pure and aligned to its input: output[i] belongs to bar i
// and NaN marks warm-up rows.
package calculator

import (
	"fmt"

	"MarketLens/internal/model"
)

// Indicator periods used by Compute.
const (
	RSIPeriod = 14
)

// EMAPeriods are the exponential averages carried on every frame.
var EMAPeriods = []int{9, 20, 21, 50, 55, 144, 200}

// Compute derives the full indicator set in one pass. The input is not
// modified. Series shorter than model.MinRows are rejected.
func Compute(s model.Series) (*model.Frame, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("compute %s: %w", s.Symbol, model.ErrEmptySeries)
	}
	if s.Len() < model.MinRows {
		return nil, fmt.Errorf("compute %s: %d rows: %w", s.Symbol, s.Len(), model.ErrInsufficientHistory)
	}

	own := s
	own.Candles = append([]model.Candle(nil), s.Candles...)
	f := &model.Frame{Series: own}

	opens, highs, lows, closes, volumes := own.Opens(), own.Highs(), own.Lows(), own.Closes(), own.Volumes()

	f.RSI = RSI(closes, RSIPeriod)
	f.MACDLine, f.MACDSignal, f.MACDHist = MACD(closes, MACDFast, MACDSlow, MACDSignal)

	bands := Bollinger(closes, BollingerPeriod, BollingerK, BollingerMinPeriods)
	f.BBUpper, f.BBMid, f.BBLower, f.BBWidth = bands.Upper, bands.Mid, bands.Lower, bands.Width

	di := ADX(highs, lows, closes, ADXPeriod)
	f.ADX, f.PlusDI, f.MinusDI = di.ADX, di.PlusDI, di.MinusDI
	f.ATR = ATR(highs, lows, closes, ATRPeriod)
	f.OBV = OBV(closes, volumes)

	emas := make(map[int][]float64, len(EMAPeriods))
	for _, p := range EMAPeriods {
		emas[p] = EMA(closes, p)
	}
	f.EMA9, f.EMA20, f.EMA21, f.EMA50 = emas[9], emas[20], emas[21], emas[50]
	f.EMA55, f.EMA144, f.EMA200 = emas[55], emas[144], emas[200]
	f.SMA20 = SMA(closes, 20)
	f.SMA50 = SMA(closes, 50)
	f.ROC = ROC(closes, ROCPeriod)

	f.RealizedVol = RealizedVolatility(closes, RealizedVolPeriod, RealizedVolMin)
	f.Drawdown = Drawdown(closes, DrawdownPeriod)
	f.VolZ = VolumeZScore(volumes, VolZWindow, VolZMinPeriods, VolZClip)

	// Price-only feeds have no intrabar range: channel on closes, no patterns.
	if own.Synthetic {
		f.High20, f.Low20 = Donchian(closes, closes, DonchianPeriod)
		f.Engulfing = make([]float64, len(closes))
		f.PinBar = make([]float64, len(closes))
	} else {
		f.High20, f.Low20 = Donchian(highs, lows, DonchianPeriod)
		f.Engulfing = Engulfing(opens, closes)
		f.PinBar = PinBar(opens, highs, lows, closes)
	}
	return f, nil
}
