package strategy

import (
	"fmt"
	"math"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

// Bias weights. They sum to 1.
const (
	WeightMomentum = 0.35
	WeightTrend    = 0.30
	WeightStruct   = 0.20
	WeightFlow     = 0.15
)

// Sub-score constants.
const (
	VolumeRatioPeriod = 20
	OBVSlopeBars      = 5
	ATRPenaltyPct     = 8.0 // ATR/price percent at which the penalty saturates
)

// scoreMomentum blends RSI distance from 50, MACD-vs-signal side and a
// tanh-bounded rate of change.
// Weight: 0.35
func scoreMomentum(r model.Row) model.FactorScore {
	rsiTerm := orZero((r.Get(model.ColRSI) - 50) / 50)
	macdTerm := 0.0
	if line, sig := r.Get(model.ColMACDLine), r.Get(model.ColMACDSignal); finite(line) && finite(sig) {
		macdTerm = signOf(line - sig)
	}
	rocTerm := orZero(math.Tanh(r.Get(model.ColROC) / 5))
	score := clamp(0.4*rsiTerm+0.3*macdTerm+0.3*rocTerm, -1, 1)
	return factor("momentum", score, WeightMomentum,
		fmt.Sprintf("rsi %s, macd %s signal", fmtValue(r.Get(model.ColRSI), "%.0f"), side(macdTerm)))
}

// scoreTrend measures EMA stacking: EMA20 vs EMA50 and EMA50 vs EMA200.
// Weight: 0.30
func scoreTrend(r model.Row) model.FactorScore {
	ema20, ema50, ema200 := r.Get(model.ColEMA20), r.Get(model.ColEMA50), r.Get(model.ColEMA200)
	short, long := 0.0, 0.0
	if finite(ema20) && finite(ema50) && ema50 > 0 {
		short = math.Tanh((ema20/ema50 - 1) * 20)
	}
	if finite(ema50) && finite(ema200) && ema200 > 0 {
		long = math.Tanh((ema50/ema200 - 1) * 10)
	}
	score := clamp(0.6*short+0.4*long, -1, 1)
	return factor("trend", score, WeightTrend, fmt.Sprintf("ema20/50 %+.2f, ema50/200 %+.2f", short, long))
}

// scoreStructure nets breakout/breakdown and candle patterns, plus the
// signed body ratio of the last candle when the series has true OHLC.
// Weight: 0.20
func scoreStructure(r model.Row, sig model.RegimeSignals, synthetic bool) model.FactorScore {
	score := 0.0
	if sig.Breakout {
		score += 0.5
	}
	if sig.Breakdown {
		score -= 0.5
	}
	score += 0.3 * orZero(r.Get(model.ColEngulfing))
	score += 0.2 * orZero(r.Get(model.ColPinBar))
	if !synthetic {
		score += 0.2 * calculator.BodyRatio(r.Open, r.High, r.Low, r.Close)
	}
	score = clamp(score, -1, 1)
	return factor("structure", score, WeightStruct, fmt.Sprintf("breakout=%t breakdown=%t", sig.Breakout, sig.Breakdown))
}

// scoreLiquidity combines the volume ratio against the 20-bar average,
// signed by the candle direction, with the sign of the short OBV slope.
// Weight: 0.15
func scoreLiquidity(r model.Row, trailing *model.Frame) model.FactorScore {
	ratioTerm, slopeTerm := 0.0, 0.0
	ratio := math.NaN()
	if trailing != nil && trailing.Len() > 0 {
		ratio = calculator.VolumeRatio(trailing.Volumes(), VolumeRatioPeriod)
		if finite(ratio) {
			ratioTerm = math.Tanh(ratio-1) * signOf(r.Close-r.Open)
		}
		if n := len(trailing.OBV); n > OBVSlopeBars {
			slopeTerm = orZero(signOf(trailing.OBV[n-1] - trailing.OBV[n-1-OBVSlopeBars]))
		}
	}
	score := clamp(0.5*ratioTerm+0.5*slopeTerm, -1, 1)
	return factor("liquidity", score, WeightFlow, fmt.Sprintf("volume x%s, obv %s", fmtValue(ratio, "%.2f"), direction(slopeTerm)))
}

// volatilityPenalty maps ATR as a percent of price onto [0, 1].
func volatilityPenalty(r model.Row) model.FactorScore {
	atr := r.Get(model.ColATR)
	p := 0.0
	if finite(atr) && r.Close > 0 {
		p = clamp(atr/r.Close*100/ATRPenaltyPct, 0, 1)
	}
	return model.FactorScore{
		Name:       "volatility",
		RawScore:   p,
		Commentary: fmt.Sprintf("atr %s%% of price", fmtValue(atr/r.Close*100, "%.2f")),
	}
}

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func orZero(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return v
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func side(v float64) string {
	switch {
	case v > 0:
		return "above"
	case v < 0:
		return "below"
	}
	return "flat"
}

func direction(v float64) string {
	switch {
	case v > 0:
		return "rising"
	case v < 0:
		return "falling"
	}
	return "flat"
}

func fmtValue(v float64, format string) string {
	if !finite(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}
