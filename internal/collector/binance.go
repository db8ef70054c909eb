package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2"
)

// BinanceFetcher loads spot klines through the Binance REST API.
type BinanceFetcher struct {
	client *binance.Client
	Quote  string
}

// NewBinanceFetcher creates a fetcher. Klines are public, so the key pair may be empty.
// A non-empty baseURL overrides the API host.
func NewBinanceFetcher(apiKey, secretKey, baseURL string) *BinanceFetcher {
	c := binance.NewClient(apiKey, secretKey)
	if baseURL != "" {
		c.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &BinanceFetcher{client: c, Quote: "USDT"}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// pairSymbol turns a ticker such as "btc" into "BTCUSDT"; full pairs pass through.
func (f *BinanceFetcher) pairSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, q := range []string{"USDT", "USDC", "FDUSD", "BUSD"} {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return s
		}
	}
	return s + f.Quote
}

// FetchHistory returns the klines re-encoded as JSON records
// ({"openTime", "open", "high", ...}), which the normalizer reads as OHLCV rows.
func (f *BinanceFetcher) FetchHistory(ctx context.Context, symbol string, days int) (Payload, error) {
	interval, limit := barPlan(days)
	klines, err := f.client.NewKlinesService().
		Symbol(f.pairSymbol(symbol)).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("binance klines %s: %w", symbol, err)
	}
	body, err := json.Marshal(klines)
	if err != nil {
		return Payload{}, fmt.Errorf("binance encode %s: %w", symbol, err)
	}
	return Payload{Source: f.Name(), Body: body}, nil
}
