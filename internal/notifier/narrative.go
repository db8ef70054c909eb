package notifier

import (
	"fmt"
	"math"
	"strings"

	"MarketLens/internal/model"
)

// NarrativeWindows are the performance windows shown in the headline.
var NarrativeWindows = []string{"1h", "4h", "12h", "24h"}

// MaxBullets caps the upside and downside lists.
const MaxBullets = 3

// Compose renders the full deterministic summary for a snapshot.
func Compose(symbol string, snap *model.Snapshot) string {
	var b strings.Builder
	writeHeadline(&b, symbol, snap)
	writeOutlook(&b, snap)
	fmt.Fprintf(&b, "Regime: %s, RSI %s (%s), MACD cross: %s.\n",
		snap.Signals.Regime, formatNumber(snap.Latest.Get(model.ColRSI), 0), snap.Signals.RSIState, snap.Signals.MACDCross)
	writeBullets(&b, snap)
	return strings.TrimRight(b.String(), "\n")
}

func writeHeadline(b *strings.Builder, symbol string, snap *model.Snapshot) {
	parts := make([]string, 0, len(NarrativeWindows))
	for _, key := range NarrativeWindows {
		if v, ok := snap.Change(key); ok {
			parts = append(parts, fmt.Sprintf("%s %+.2f%%", key, v))
		} else {
			parts = append(parts, key+" n/a")
		}
	}
	fmt.Fprintf(b, "%s: price %s (%s)\n", symbol, FormatPrice(snap.Price), strings.Join(parts, ", "))
	if snap.Synthetic {
		b.WriteString("Note: built from a price-only feed, intrabar ranges are approximated.\n")
	}
}

func writeOutlook(b *strings.Builder, snap *model.Snapshot) {
	sc := snap.Score
	fmt.Fprintf(b, "Bias: %s (%+.2f), confidence %.0f%%.\n", sc.TiltLabel, sc.Bias, sc.Confidence)
	fmt.Fprintf(b, "Odds: up %d%% / flat %d%% / down %d%%.\n", sc.Probabilities.Up, sc.Probabilities.Flat, sc.Probabilities.Down)
}

func writeBullets(b *strings.Builder, snap *model.Snapshot) {
	up, down := Catalysts(snap)
	if len(up) > 0 {
		b.WriteString("Upside:\n")
		for _, s := range up {
			b.WriteString("- " + s + "\n")
		}
	}
	if len(down) > 0 {
		b.WriteString("Risks:\n")
		for _, s := range down {
			b.WriteString("- " + s + "\n")
		}
	}
}

// Catalysts returns up to MaxBullets upside and downside points, each
// drawn from a signal or sub-score on the snapshot.
func Catalysts(snap *model.Snapshot) (upside, downside []string) {
	sig, sc, row := snap.Signals, snap.Score, snap.Latest
	add := func(list *[]string, ok bool, text string) {
		if ok && len(*list) < MaxBullets {
			*list = append(*list, text)
		}
	}

	add(&upside, sig.Breakout, fmt.Sprintf("price broke above the 20-bar high (%s)", FormatPrice(row.Get(model.ColHigh20))))
	add(&upside, sig.Regime == model.RegimeUptrend, "EMA20 > EMA50 > EMA200 uptrend with price above EMA200")
	add(&upside, sig.MACDCross == model.CrossBull, "fresh bullish MACD cross")
	add(&upside, sig.RSIState == model.RSIOversold, fmt.Sprintf("RSI oversold at %s, room for a rebound", formatNumber(row.Get(model.ColRSI), 0)))
	add(&upside, sig.VolumeSpike && sc.Liquidity > 0, "volume spike with buying flow")
	add(&upside, sc.Momentum >= 0.2, fmt.Sprintf("positive momentum (%+.2f)", sc.Momentum))
	add(&upside, sig.Squeeze && sc.Bias > 0, "volatility squeeze could resolve higher")

	add(&downside, sig.Breakdown, fmt.Sprintf("price lost the 20-bar low (%s)", FormatPrice(row.Get(model.ColLow20))))
	add(&downside, sig.Regime == model.RegimeDowntrend, "EMA20 < EMA50 < EMA200 downtrend with price below EMA200")
	add(&downside, sig.MACDCross == model.CrossBear, "fresh bearish MACD cross")
	add(&downside, sig.RSIState == model.RSIOverbought, fmt.Sprintf("RSI overbought at %s, pullback risk", formatNumber(row.Get(model.ColRSI), 0)))
	add(&downside, sig.VolumeSpike && sc.Liquidity < 0, "volume spike with selling flow")
	add(&downside, sc.Momentum <= -0.2, fmt.Sprintf("negative momentum (%+.2f)", sc.Momentum))
	add(&downside, sc.VolatilityPenalty >= 0.5, fmt.Sprintf("high volatility, ATR %s%% of price", formatNumber(atrPct(snap), 2)))
	add(&downside, sig.Squeeze && sc.Bias <= 0, "volatility squeeze could resolve lower")
	return upside, downside
}

// FormatPrice keeps three significant decimals for sub-dollar prices.
func FormatPrice(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "n/a"
	}
	if p >= 1 || p <= 0 {
		return fmt.Sprintf("%.2f", p)
	}
	decimals := int(math.Ceil(-math.Log10(p))) + 3
	return fmt.Sprintf("%.*f", decimals, p)
}

func formatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

func atrPct(snap *model.Snapshot) float64 {
	if snap.Price <= 0 {
		return math.NaN()
	}
	return snap.Latest.Get(model.ColATR) / snap.Price * 100
}
