package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MockFetcher returns controllable generated data for development and testing.
type MockFetcher struct {
	Price    float64
	Interval time.Duration
	Body     []byte // returned verbatim when set
	Err      error
	Now      func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, _ string, days int) (Payload, error) {
	if m.Err != nil {
		return Payload{}, m.Err
	}
	if m.Body != nil {
		return Payload{Source: m.Name(), Body: m.Body}, nil
	}
	interval := m.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	count := int(time.Duration(max(days, 1)) * 24 * time.Hour / interval)
	body, err := json.Marshal(generateMockBars(m.Price, count, interval, now()))
	if err != nil {
		return Payload{}, fmt.Errorf("mock encode: %w", err)
	}
	return Payload{Source: m.Name(), Body: body}, nil
}

type mockBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// generateMockBars draws a gentle drift with a slow oscillation ending at end.
func generateMockBars(basePrice float64, count int, interval time.Duration, end time.Time) []mockBar {
	if basePrice <= 0 {
		basePrice = 100
	}
	end = end.Truncate(interval)
	bars := make([]mockBar, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.0005 + 0.02*math.Sin(float64(i)/12))
		bars[i] = mockBar{
			Timestamp: end.Add(-time.Duration(count-1-i) * interval).UnixMilli(),
			Open:      prev,
			High:      math.Max(prev, p) * 1.002,
			Low:       math.Min(prev, p) * 0.998,
			Close:     p,
			Volume:    1_000_000 * (1 + 0.3*math.Cos(float64(i)/7)),
		}
		prev = p
	}
	return bars
}
