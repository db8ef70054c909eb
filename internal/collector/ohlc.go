package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"MarketLens/internal/model"
)

// OHLCFetcher reads a generic REST endpoint that returns an array of
// {timestamp, open, high, low, close, volume} records.
type OHLCFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewOHLCFetcher creates a new fetcher with optional proxy support.
func NewOHLCFetcher(baseURL, apiKey, proxyURL string) *OHLCFetcher {
	return &OHLCFetcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *OHLCFetcher) Name() string { return "ohlc" }

func (f *OHLCFetcher) FetchHistory(ctx context.Context, symbol string, days int) (Payload, error) {
	interval, limit := barPlan(days)
	q := url.Values{}
	q.Set("symbol", model.CanonicalSymbol(symbol))
	q.Set("interval", interval)
	q.Set("limit", fmt.Sprint(limit))
	endpoint := f.BaseURL + "/api/v1/bars?" + q.Encode()

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := getBody(ctx, f.Client, endpoint, header)
	if err != nil {
		return Payload{}, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}
	return Payload{Source: f.Name(), Body: body}, nil
}

// maxBars caps a single history request; exchanges reject larger pages.
const maxBars = 1000

var barIntervals = []struct {
	name   string
	perDay int
}{
	{"1m", 1440},
	{"5m", 288},
	{"15m", 96},
	{"1h", 24},
	{"4h", 6},
	{"1d", 1},
}

// barPlan picks the finest interval whose bar count for days fits in one page.
func barPlan(days int) (interval string, limit int) {
	if days <= 0 {
		days = 1
	}
	for _, iv := range barIntervals {
		if n := days * iv.perDay; n <= maxBars {
			return iv.name, n
		}
	}
	return "1d", min(days, maxBars)
}
