package window

import (
	"sort"
	"time"

	"MarketLens/internal/model"
)

// rollupWindows are the performance windows reported on a snapshot.
var rollupWindows = map[string]time.Duration{
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"24h": day,
	"7d":  7 * day,
	"30d": 30 * day,
	"1y":  365 * day,
}

// Rollups returns the percent change of the latest close against the last
// close at or before latest-window. The reference row must lie within half
// a window of that target, otherwise the window is reported as nil.
func Rollups(s model.Series) model.Rollups {
	out := make(model.Rollups, len(model.RollupKeys))
	for _, key := range model.RollupKeys {
		out[key] = nil
	}
	if s.Len() < 2 {
		return out
	}
	latest := s.Last()
	for _, key := range model.RollupKeys {
		d := rollupWindows[key]
		target := latest.Time.Add(-d)
		// first index with time > target; the row before it is the reference
		i := sort.Search(s.Len(), func(i int) bool { return s.Candles[i].Time.After(target) })
		if i == 0 {
			continue
		}
		ref := s.Candles[i-1]
		if target.Sub(ref.Time) > d/2 || ref.Close <= 0 {
			continue
		}
		pct := (latest.Close/ref.Close - 1) * 100
		out[key] = &pct
	}
	return out
}
