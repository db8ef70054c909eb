package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"MarketLens/internal/model"
	"MarketLens/internal/normalize"
)

const DefaultDexScreenerURL = "https://api.dexscreener.com"

// DexScreenerFetcher looks up DEX pairs. As a Fetcher it yields the pair
// snapshot itself, which only carries anchor points and is never enough
// history on its own.
type DexScreenerFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewDexScreenerFetcher(baseURL, proxyURL string) *DexScreenerFetcher {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	return &DexScreenerFetcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *DexScreenerFetcher) Name() string { return "dexscreener" }

func (f *DexScreenerFetcher) search(ctx context.Context, symbol string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", f.BaseURL, url.QueryEscape(symbol))
	header := http.Header{}
	header.Set("User-Agent", "marketlens/1.0")
	body, err := getBody(ctx, f.Client, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dexscreener %s: %w", symbol, err)
	}
	return body, nil
}

func (f *DexScreenerFetcher) FetchHistory(ctx context.Context, symbol string, _ int) (Payload, error) {
	body, err := f.search(ctx, symbol)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Source: f.Name(), Body: body}, nil
}

// FetchPair returns the most liquid pair matching symbol.
func (f *DexScreenerFetcher) FetchPair(ctx context.Context, symbol string) (model.PairInfo, error) {
	body, err := f.search(ctx, symbol)
	if err != nil {
		return model.PairInfo{}, err
	}
	info, err := normalize.ParsePair(body)
	if err != nil {
		return model.PairInfo{}, fmt.Errorf("dexscreener %s: %w", symbol, err)
	}
	return info, nil
}
