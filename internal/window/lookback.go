// Package window slices indicator frames to a trailing lookback and
// resamples them to a display bucket size.
package window

import (
	"fmt"
	"strings"
	"time"

	"MarketLens/internal/model"
)

// Lookback is one entry of the fixed lookback enumeration.
type Lookback struct {
	Key      string
	Duration time.Duration // 0 for "all"
	Bucket   time.Duration // 0 for "all": chosen from the data span
}

const day = 24 * time.Hour

// Lookbacks maps each key to its trailing duration and bucket width.
var Lookbacks = []Lookback{
	{"1h", time.Hour, time.Minute},
	{"4h", 4 * time.Hour, 5 * time.Minute},
	{"8h", 8 * time.Hour, 10 * time.Minute},
	{"12h", 12 * time.Hour, 15 * time.Minute},
	{"24h", day, 15 * time.Minute},
	{"7d", 7 * day, time.Hour},
	{"30d", 30 * day, 4 * time.Hour},
	{"1y", 365 * day, day},
	{"all", 0, 0},
}

// MaxPoints bounds the bucket count chosen for "all".
const MaxPoints = 500

// allBuckets are the candidate widths for "all", finest first.
var allBuckets = []time.Duration{
	time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour,
	4 * time.Hour, day, 7 * day, 30 * day,
}

// ParseLookback resolves a lookback key, case-insensitively.
func ParseLookback(key string) (Lookback, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		k = "24h"
	}
	for _, lb := range Lookbacks {
		if lb.Key == k {
			return lb, nil
		}
	}
	return Lookback{}, fmt.Errorf("lookback %q: %w", key, model.ErrUnknownLookback)
}

// bucketForSpan picks the finest bucket that keeps span within MaxPoints.
func bucketForSpan(span time.Duration) time.Duration {
	for _, b := range allBuckets {
		if int(span/b)+1 <= MaxPoints {
			return b
		}
	}
	return allBuckets[len(allBuckets)-1]
}
