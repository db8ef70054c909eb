package model

import (
	"encoding/json"
	"time"
)

// Rollup windows reported in a Snapshot, in display order.
var RollupKeys = []string{"1h", "4h", "8h", "12h", "24h", "7d", "30d", "1y"}

// Rollups maps a window key to the percent change over it. A nil value means
// the series does not reach back that far.
type Rollups map[string]*float64

// Snapshot is the point-in-time analysis bundle for one symbol.
type Snapshot struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
	Price       float64        `json:"price"`
	Synthetic   bool           `json:"synthetic_ohlc"`
	Rollups     Rollups        `json:"rollups"`
	Latest      Row            `json:"latest"`
	Signals     RegimeSignals  `json:"signals"`
	Score       CompositeScore `json:"score"`
	Narrative   string         `json:"narrative"`
	Pair        *PairInfo      `json:"pair,omitempty"`
}

// Change returns the rollup for key, if present.
func (s *Snapshot) Change(key string) (float64, bool) {
	v, ok := s.Rollups[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// JSON renders the snapshot as a plain key-value document.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}
