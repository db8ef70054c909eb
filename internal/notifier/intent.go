package notifier

import (
	"fmt"
	"strings"
	"unicode"

	"MarketLens/internal/model"
)

// Mode selects which part of the analysis a reply focuses on.
type Mode string

const (
	ModeTrend      Mode = "trend"
	ModeLevels     Mode = "levels"
	ModeVolume     Mode = "volume"
	ModeVolatility Mode = "volatility"
	ModePrediction Mode = "prediction"
	ModeGeneral    Mode = "general"
)

// intentKeywords is checked in order; the first mode with a matching keyword wins.
var intentKeywords = []struct {
	Mode     Mode
	Keywords []string
}{
	{ModeLevels, []string{"support", "resistance", "level", "floor", "ceiling", "donchian"}},
	{ModeVolume, []string{"volume", "liquidity", "flow", "obv", "buyers", "sellers"}},
	{ModeVolatility, []string{"volatil", "atr", "squeeze", "bollinger", "swing", "risky"}},
	{ModePrediction, []string{"predict", "forecast", "will it", "going to", "next", "odds", "chance", "probab", "target"}},
	{ModeTrend, []string{"trend", "direction", "bullish", "bearish", "momentum", "ema", "moving average", "adx"}},
}

// ClassifyIntent maps free-form question text to a narrative mode.
// Single-word keywords match word prefixes; phrases match anywhere.
func ClassifyIntent(text string) Mode {
	t := strings.ToLower(text)
	words := strings.FieldsFunc(t, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	for _, ik := range intentKeywords {
		for _, kw := range ik.Keywords {
			if matches(t, words, kw) {
				return ik.Mode
			}
		}
	}
	return ModeGeneral
}

func matches(text string, words []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(text, kw)
	}
	for _, w := range words {
		if strings.HasPrefix(w, kw) {
			return true
		}
	}
	return false
}

// ComposeFor renders the headline plus the section for mode.
func ComposeFor(mode Mode, symbol string, snap *model.Snapshot) string {
	if mode == ModeGeneral {
		return Compose(symbol, snap)
	}

	var b strings.Builder
	writeHeadline(&b, symbol, snap)
	row, sig, sc := snap.Latest, snap.Signals, snap.Score

	switch mode {
	case ModeTrend:
		fmt.Fprintf(&b, "Trend: %s (score %+.2f), ADX %s.\n", sig.Regime, sc.Trend, formatNumber(row.Get(model.ColADX), 1))
		fmt.Fprintf(&b, "EMA20 %s, EMA50 %s, EMA200 %s.\n",
			FormatPrice(row.Get(model.ColEMA20)), FormatPrice(row.Get(model.ColEMA50)), FormatPrice(row.Get(model.ColEMA200)))
		fmt.Fprintf(&b, "Momentum %+.2f, MACD cross: %s.\n", sc.Momentum, sig.MACDCross)
	case ModeLevels:
		fmt.Fprintf(&b, "20-bar range: %s to %s.\n", FormatPrice(row.Get(model.ColLow20)), FormatPrice(row.Get(model.ColHigh20)))
		fmt.Fprintf(&b, "Bollinger: %s / %s / %s.\n",
			FormatPrice(row.Get(model.ColBBLower)), FormatPrice(row.Get(model.ColBBMid)), FormatPrice(row.Get(model.ColBBUpper)))
		fmt.Fprintf(&b, "EMA50 %s, EMA200 %s.\n", FormatPrice(row.Get(model.ColEMA50)), FormatPrice(row.Get(model.ColEMA200)))
		switch {
		case sig.Breakout:
			b.WriteString("Price is breaking out above resistance.\n")
		case sig.Breakdown:
			b.WriteString("Price is breaking down below support.\n")
		}
	case ModeVolume:
		fmt.Fprintf(&b, "Volume z-score %s, spike: %t.\n", formatNumber(row.Get(model.ColVolZ), 2), sig.VolumeSpike)
		fmt.Fprintf(&b, "Flow score %+.2f, OBV %s.\n", sc.Liquidity, formatNumber(row.Get(model.ColOBV), 0))
		if snap.Pair != nil {
			fmt.Fprintf(&b, "DEX liquidity $%.0f, 24h volume $%.0f.\n", snap.Pair.LiquidityUSD, snap.Pair.Volume24h)
		}
	case ModeVolatility:
		fmt.Fprintf(&b, "ATR %s%% of price, Bollinger width %s%%, realized vol %s%%.\n",
			formatNumber(atrPct(snap), 2), formatNumber(row.Get(model.ColBBWidth), 2), formatNumber(row.Get(model.ColRealizedVol), 2))
		fmt.Fprintf(&b, "Squeeze: %t, volatility penalty %.2f.\n", sig.Squeeze, sc.VolatilityPenalty)
	case ModePrediction:
		writeOutlook(&b, snap)
		writeBullets(&b, snap)
	}
	return strings.TrimRight(b.String(), "\n")
}
