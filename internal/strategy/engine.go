// Package strategy classifies market regime and scores directional bias
// from the latest indicator row.
package strategy

import (
	"math"

	"MarketLens/internal/model"
)

// TiltBands maps |bias| to a strength prefix; below the last band the tilt is flat.
var TiltBands = []struct {
	MinAbs float64
	Prefix string
}{
	{0.30, "strong "},
	{0.15, ""},
	{0.05, "slight "},
}

// TiltFlat is the label for |bias| below every band.
const TiltFlat = "flat"

// TiltLabels lists every label from most bearish to most bullish.
var TiltLabels = []string{"strong down", "down", "slight down", TiltFlat, "slight up", "up", "strong up"}

// Probability mapping constants.
const (
	logisticSlope  = 4.0
	flatPenaltyAdd = 0.2
	flatMin        = 0.05
	flatMax        = 0.9
	biasDeadZone   = 1e-9
)

// mapTilt maps a bias to one of seven symmetric labels.
func mapTilt(bias float64) string {
	abs := math.Abs(bias)
	dir := "up"
	if bias < 0 {
		dir = "down"
	}
	for _, b := range TiltBands {
		if abs >= b.MinAbs {
			return b.Prefix + dir
		}
	}
	return TiltFlat
}

// Score combines the sub-scores into bias, tilt, confidence and the
// up/flat/down triple. trailing ends with latest.
func Score(latest model.Row, sig model.RegimeSignals, trailing *model.Frame) model.CompositeScore {
	synthetic := trailing != nil && trailing.Synthetic
	mom := scoreMomentum(latest)
	trend := scoreTrend(latest)
	structure := scoreStructure(latest, sig, synthetic)
	flow := scoreLiquidity(latest, trailing)
	vol := volatilityPenalty(latest)

	factors := []model.FactorScore{mom, trend, structure, flow, vol}
	bias := clamp(mom.Weighted+trend.Weighted+structure.Weighted+flow.Weighted, -1, 1)

	cs := model.CompositeScore{
		Momentum:          mom.RawScore,
		Trend:             trend.RawScore,
		Structure:         structure.RawScore,
		Liquidity:         flow.RawScore,
		VolatilityPenalty: vol.RawScore,
		Bias:              bias,
		TiltLabel:         mapTilt(bias),
		Factors:           factors,
	}
	cs.Confidence = confidence(bias, latest.Get(model.ColADX), factors[:4], vol.RawScore)
	cs.Probabilities = probabilities(bias, vol.RawScore)
	return cs
}

// confidence = 100·(0.5|bias| + 0.25·ADX/50 + 0.25·consensus)·(1 - 0.5·penalty),
// where consensus is the share of directional factors agreeing with bias.
func confidence(bias, adx float64, directional []model.FactorScore, penalty float64) float64 {
	trendStrength := clamp(orZero(adx)/50, 0, 1)
	consensus := 0.0
	if dir := signOf(bias); dir != 0 && math.Abs(bias) > biasDeadZone {
		agree := 0
		for _, f := range directional {
			if signOf(f.RawScore) == dir {
				agree++
			}
		}
		consensus = float64(agree) / float64(len(directional))
	}
	c := 100 * (0.5*math.Abs(bias) + 0.25*trendStrength + 0.25*consensus) * (1 - 0.5*penalty)
	return math.Round(clamp(c, 0, 100)*10) / 10
}

// probabilities splits 100 into up/flat/down. The flat share grows as the
// bias shrinks and as volatility rises; the rest is split by a logistic of
// bias. Flat absorbs the rounding.
func probabilities(bias, penalty float64) model.Probabilities {
	flat := clamp((1-math.Abs(bias))/3+flatPenaltyAdd*penalty, flatMin, flatMax)
	rest := 1 - flat
	up := rest / (1 + math.Exp(-logisticSlope*bias))
	down := rest - up
	p := model.Probabilities{
		Up:   int(math.Round(up * 100)),
		Down: int(math.Round(down * 100)),
	}
	p.Flat = 100 - p.Up - p.Down
	return p
}
