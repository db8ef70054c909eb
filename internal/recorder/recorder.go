// Package recorder keeps a history of analysis snapshots and alerts.
package recorder

import (
	"context"
	"time"

	"MarketLens/internal/model"
)

// HistoryEntry is one persisted snapshot summary.
type HistoryEntry struct {
	ID         string              `json:"id"`
	Symbol     string              `json:"symbol"`
	Timestamp  time.Time           `json:"timestamp"`
	Price      float64             `json:"price"`
	Bias       float64             `json:"bias"`
	Confidence float64             `json:"confidence"`
	Tilt       string              `json:"tilt"`
	Regime     string              `json:"regime"`
	Odds       model.Probabilities `json:"probabilities"`
	Signals    model.RegimeSignals `json:"signals"`
	Narrative  string              `json:"narrative"`
}

// AlertEvent records an alert sent for a symbol.
type AlertEvent struct {
	Symbol    string
	Timestamp time.Time
	Events    []string
	Delivered bool
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSnapshot(ctx context.Context, snap *model.Snapshot) error
	RecordAlert(ctx context.Context, evt *AlertEvent) error
	Recent(ctx context.Context, symbol string, limit int) ([]HistoryEntry, error)
	Close() error
}
