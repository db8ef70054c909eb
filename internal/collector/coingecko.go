package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoFetcher loads the market_chart endpoint ({prices, total_volumes, market_caps}).
type CoinGeckoFetcher struct {
	BaseURL   string
	APIKey    string
	Client    *http.Client
	SymbolMap map[string]string // maps ticker to CoinGecko coin id
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, apiKey, proxyURL string) *CoinGeckoFetcher {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGeckoFetcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"BTC":  "bitcoin",
			"ETH":  "ethereum",
			"SOL":  "solana",
			"BNB":  "binancecoin",
			"XRP":  "ripple",
			"ADA":  "cardano",
			"DOGE": "dogecoin",
			"AVAX": "avalanche-2",
			"LINK": "chainlink",
			"DOT":  "polkadot",
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

func (f *CoinGeckoFetcher) coinID(symbol string) string {
	if id, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

func (f *CoinGeckoFetcher) FetchHistory(ctx context.Context, symbol string, days int) (Payload, error) {
	if days <= 0 {
		days = 1
	}
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		f.BaseURL, url.PathEscape(f.coinID(symbol)), days)

	header := http.Header{}
	header.Set("Accept", "application/json")
	if f.APIKey != "" {
		header.Set("x-cg-demo-api-key", f.APIKey)
	}
	body, err := getBody(ctx, f.Client, endpoint, header)
	if err != nil {
		return Payload{}, fmt.Errorf("coingecko %s: %w", symbol, err)
	}
	return Payload{Source: f.Name(), Body: body}, nil
}
