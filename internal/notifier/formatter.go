package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MarketLens/internal/model"
)

// FormatSnapshotMessage wraps the narrative for Telegram's HTML parse mode.
func FormatSnapshotMessage(symbol string, snap *model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b> | %s UTC\n\n", html.EscapeString(symbol), snap.GeneratedAt.UTC().Format("2006-01-02 15:04"))
	b.WriteString(html.EscapeString(Compose(symbol, snap)))
	return b.String()
}

// NewEvents lists the alert-worthy signals present in cur but not in prev.
// Without a previous reading nothing is reported.
func NewEvents(prev *model.RegimeSignals, cur model.RegimeSignals) []string {
	if prev == nil {
		return nil
	}
	var events []string
	if cur.Breakout && !prev.Breakout {
		events = append(events, "breakout above the 20-bar high")
	}
	if cur.Breakdown && !prev.Breakdown {
		events = append(events, "breakdown below the 20-bar low")
	}
	if cur.VolumeSpike && !prev.VolumeSpike {
		events = append(events, "volume spike")
	}
	if cur.MACDCross != model.CrossNone && cur.MACDCross != prev.MACDCross {
		events = append(events, fmt.Sprintf("%s MACD cross", cur.MACDCross))
	}
	return events
}

// FormatAlert renders a signal alert for one symbol.
func FormatAlert(symbol string, events []string, snap *model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>%s alert</b>\n", html.EscapeString(symbol))
	for _, e := range events {
		b.WriteString("• " + html.EscapeString(e) + "\n")
	}
	fmt.Fprintf(&b, "\nPrice %s, bias %s, confidence %.0f%%",
		FormatPrice(snap.Price), html.EscapeString(snap.Score.TiltLabel), snap.Score.Confidence)
	return b.String()
}

// FormatBoard renders one line per snapshot.
func FormatBoard(snaps []*model.Snapshot, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>MarketLens board</b> | %s UTC\n\n", at.UTC().Format("2006-01-02 15:04"))
	if len(snaps) == 0 {
		b.WriteString(model.NotEnoughDataMsg)
		return b.String()
	}
	for _, s := range snaps {
		day := "n/a"
		if v, ok := s.Change("24h"); ok {
			day = fmt.Sprintf("%+.2f%%", v)
		}
		fmt.Fprintf(&b, "%s %s | 24h %s | %s %.0f%%\n",
			html.EscapeString(s.Symbol), FormatPrice(s.Price), day, html.EscapeString(s.Score.TiltLabel), s.Score.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}
