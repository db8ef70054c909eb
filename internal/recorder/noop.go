package recorder

import (
	"context"

	"MarketLens/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(context.Context, *model.Snapshot) error { return nil }
func (n *NoopRecorder) RecordAlert(context.Context, *AlertEvent) error        { return nil }
func (n *NoopRecorder) Recent(context.Context, string, int) ([]HistoryEntry, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
