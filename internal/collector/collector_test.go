package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"MarketLens/internal/cache"
	"MarketLens/internal/model"
	"MarketLens/internal/normalize"
)

var fixedNow = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func TestBarPlan(t *testing.T) {
	tests := []struct {
		days      int
		interval  string
		wantLimit int
	}{
		{0, "5m", 288},
		{1, "5m", 288},
		{3, "5m", 864},
		{7, "15m", 672},
		{30, "4h", 180},
		{90, "4h", 540},
		{365, "1d", 365},
		{5000, "1d", 1000},
	}
	for _, tt := range tests {
		iv, limit := barPlan(tt.days)
		if iv != tt.interval || limit != tt.wantLimit {
			t.Errorf("barPlan(%d) = %s/%d, want %s/%d", tt.days, iv, limit, tt.interval, tt.wantLimit)
		}
	}
}

func TestCoinGeckoFetcher(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		fmt.Fprint(w, `{"prices":[[1,2]]}`)
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher(srv.URL, "k1", "")
	p, err := f.FetchHistory(context.Background(), "btc", 7)
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/coins/bitcoin/market_chart?vs_currency=usd&days=7" {
		t.Errorf("path = %s", gotPath)
	}
	if gotKey != "k1" {
		t.Errorf("api key header = %q", gotKey)
	}
	if p.Source != "coingecko" || string(p.Body) != `{"prices":[[1,2]]}` {
		t.Errorf("payload = %+v", p)
	}
}

func TestCoinGeckoFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewCoinGeckoFetcher(srv.URL, "", "").FetchHistory(context.Background(), "ETH", 1)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status 429", err)
	}
}

func TestOHLCFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		q := r.URL.Query()
		if r.URL.Path != "/api/v1/bars" || q.Get("symbol") != "SOL" || q.Get("interval") != "15m" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	p, err := NewOHLCFetcher(srv.URL+"/", "secret", "").FetchHistory(context.Background(), "sol", 7)
	if err != nil {
		t.Fatal(err)
	}
	if string(p.Body) != "[]" {
		t.Errorf("body = %s", p.Body)
	}
}

func TestBinanceFetcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("symbol") + "/" + r.URL.Query().Get("interval")
		var rows []string
		start := int64(1_700_000_000_000)
		for i := 0; i < 12; i++ {
			c := 100 + float64(i)
			rows = append(rows, fmt.Sprintf(`[%d,"%.2f","%.2f","%.2f","%.2f","10.5",%d,"1050",7,"5","500","0"]`,
				start+int64(i)*300_000, c-0.5, c+1, c-1, c, start+int64(i+1)*300_000-1))
		}
		fmt.Fprint(w, "["+strings.Join(rows, ",")+"]")
	}))
	defer srv.Close()

	f := NewBinanceFetcher("", "", srv.URL)
	p, err := f.FetchHistory(context.Background(), "btc", 1)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "BTCUSDT/5m" {
		t.Errorf("query = %s", gotQuery)
	}

	s, err := normalize.Normalize("BTC", p.Source, p.Body)
	if err != nil {
		t.Fatalf("normalize klines: %v", err)
	}
	if s.Len() != 12 || s.Synthetic {
		t.Fatalf("len = %d synthetic = %v", s.Len(), s.Synthetic)
	}
	last := s.Last()
	if last.Close != 111 || last.Open != 110.5 || last.Volume != 10.5 {
		t.Errorf("last candle = %+v", last)
	}
}

func TestBinancePairSymbol(t *testing.T) {
	f := NewBinanceFetcher("", "", "")
	for in, want := range map[string]string{"btc": "BTCUSDT", "ETHUSDT": "ETHUSDT", " sol ": "SOLUSDT", "USDC": "USDCUSDT"} {
		if got := f.pairSymbol(in); got != want {
			t.Errorf("pairSymbol(%q) = %s, want %s", in, got, want)
		}
	}
}

const pairBody = `{"pairs":[
 {"chainId":"solana","pairAddress":"a1","baseToken":{"symbol":"WIF"},"priceUsd":"2.5","liquidity":{"usd":1000},"volume":{"h24":50},"priceChange":{"h24":10}},
 {"chainId":"solana","pairAddress":"a2","baseToken":{"symbol":"WIF"},"priceUsd":"2.6","liquidity":{"usd":90000},"volume":{"h24":7000},"priceChange":{"h1":1,"h24":25}}
]}`

func TestDexScreenerFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/dex/search" || r.URL.Query().Get("q") != "WIF" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, pairBody)
	}))
	defer srv.Close()

	f := NewDexScreenerFetcher(srv.URL, "")
	info, err := f.FetchPair(context.Background(), "WIF")
	if err != nil {
		t.Fatal(err)
	}
	if info.PairAddress != "a2" || info.PriceUSD != 2.6 || info.LiquidityUSD != 90000 {
		t.Errorf("pair = %+v", info)
	}

	p, err := f.FetchHistory(context.Background(), "WIF", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := normalize.Normalize("WIF", p.Source, p.Body); !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("pair payload normalize err = %v, want insufficient history", err)
	}
}

type countingFetcher struct {
	Fetcher
	calls atomic.Int32
}

func (c *countingFetcher) FetchHistory(ctx context.Context, symbol string, days int) (Payload, error) {
	c.calls.Add(1)
	return c.Fetcher.FetchHistory(ctx, symbol, days)
}

func TestCachedFetcher(t *testing.T) {
	inner := &countingFetcher{Fetcher: &MockFetcher{Price: 50, Now: fixedNow}}
	f := NewCachedFetcher(inner, cache.NewMemory(), time.Minute, zerolog.Nop())

	a, err := f.FetchHistory(context.Background(), "btc", 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.FetchHistory(context.Background(), "BTC", 1)
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
	if string(a.Body) != string(b.Body) || b.Source != "mock" {
		t.Error("cached payload differs from original")
	}
	if _, err := f.FetchHistory(context.Background(), "BTC", 7); err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("different window should miss, calls = %d", inner.calls.Load())
	}
}

func TestMockFetcher_Normalizes(t *testing.T) {
	p, err := (&MockFetcher{Price: 200, Interval: 15 * time.Minute, Now: fixedNow}).FetchHistory(context.Background(), "X", 1)
	if err != nil {
		t.Fatal(err)
	}
	s, err := normalize.Normalize("X", p.Source, p.Body)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 96 {
		t.Errorf("len = %d, want 96", s.Len())
	}
	if !s.Last().Time.Equal(fixedNow()) {
		t.Errorf("last time = %v", s.Last().Time)
	}
}

type stubPairs struct{ info model.PairInfo }

func (s stubPairs) FetchPair(context.Context, string) (model.PairInfo, error) { return s.info, nil }

func TestCollector_Fallback(t *testing.T) {
	failing := &MockFetcher{Err: errors.New("boom")}
	working := &MockFetcher{Price: 10, Now: fixedNow}
	c := NewCollector(zerolog.Nop(), stubPairs{model.PairInfo{PairAddress: "p"}}, failing, working)

	s, err := c.Collect(context.Background(), " eth ", 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Symbol != "ETH" || s.Source != "mock" || s.Len() != 24 {
		t.Errorf("series = %s/%s/%d", s.Symbol, s.Source, s.Len())
	}
	if s.Pair == nil || s.Pair.PairAddress != "p" {
		t.Error("pair info not attached")
	}
}

func TestCollector_Errors(t *testing.T) {
	short := &MockFetcher{Body: []byte(`[[1700000000000, 1], [1700000060000, 2]]`)}
	broken := &MockFetcher{Err: errors.New("down")}

	_, err := NewCollector(zerolog.Nop(), nil, broken, short).Collect(context.Background(), "BTC", 1)
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("err = %v, want insufficient history", err)
	}

	_, err = NewCollector(zerolog.Nop(), nil, broken).Collect(context.Background(), "BTC", 1)
	if err == nil || model.IsNotEnoughData(err) || !strings.Contains(err.Error(), "down") {
		t.Errorf("err = %v, want transport error", err)
	}

	_, err = NewCollector(zerolog.Nop(), nil, &MockFetcher{Body: []byte(`[]`)}).Collect(context.Background(), "BTC", 1)
	if !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("err = %v, want empty series", err)
	}

	if _, err := NewCollector(zerolog.Nop(), nil).Collect(context.Background(), "BTC", 1); err == nil {
		t.Error("no fetchers should error")
	}
}

type symbolFetcher struct {
	Fetcher
	got string
}

func (s *symbolFetcher) FetchHistory(ctx context.Context, symbol string, days int) (Payload, error) {
	s.got = symbol
	return s.Fetcher.FetchHistory(ctx, symbol, days)
}

type symbolPairs struct{ got string }

func (s *symbolPairs) FetchPair(_ context.Context, symbol string) (model.PairInfo, error) {
	s.got = symbol
	return model.PairInfo{PairAddress: symbol}, nil
}

func TestCollector_SymbolCase(t *testing.T) {
	const mint = "So11111111111111111111111111111111111111112"
	tests := []struct {
		in, want string
	}{
		{" sol ", "SOL"},
		{mint, mint},
		{" " + mint, mint},
		{"0xAbCdEf0123456789aBcDeF0123456789AbCdEf01", "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"},
	}
	for _, tt := range tests {
		f := &symbolFetcher{Fetcher: &MockFetcher{Price: 1, Now: fixedNow}}
		pairs := &symbolPairs{}
		s, err := NewCollector(zerolog.Nop(), pairs, f).Collect(context.Background(), tt.in, 1)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if f.got != tt.want || pairs.got != tt.want || s.Symbol != tt.want {
			t.Errorf("%q: fetcher %q, pairs %q, series %q, want %q", tt.in, f.got, pairs.got, s.Symbol, tt.want)
		}
	}
}

func TestCachedFetcher_KeepsAddressCase(t *testing.T) {
	inner := &countingFetcher{Fetcher: &MockFetcher{Price: 1, Now: fixedNow}}
	f := NewCachedFetcher(inner, cache.NewMemory(), time.Minute, zerolog.Nop())

	ctx := context.Background()
	for _, sym := range []string{"AbcDefGhijKlmnOpqrStuvWxyz123456789ABCDEF", "abcdefghijklmnopqrstuvwxyz123456789abcdef"} {
		if _, err := f.FetchHistory(ctx, sym, 1); err != nil {
			t.Fatal(err)
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("inner calls = %d, want 2 distinct cache entries", got)
	}
	if _, err := f.FetchHistory(ctx, "btc", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.FetchHistory(ctx, "BTC", 1); err != nil {
		t.Fatal(err)
	}
	if got := inner.calls.Load(); got != 3 {
		t.Errorf("inner calls = %d, want ticker case folded into one entry", got)
	}
}

func TestGetBody_SizeLimit(t *testing.T) {
	saved := maxResponseBytes
	maxResponseBytes = 16
	defer func() { maxResponseBytes = saved }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", len(r.URL.Path)))
	}))
	defer srv.Close()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/" + strings.Repeat("a", 15), false},
		{"/" + strings.Repeat("a", 16), true},
	}
	for _, tt := range tests {
		body, err := getBody(context.Background(), srv.Client(), srv.URL+tt.path, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("path len %d: err = %v, wantErr %v", len(tt.path), err, tt.wantErr)
		}
		if !tt.wantErr && len(body) != 16 {
			t.Errorf("body len = %d, want 16", len(body))
		}
	}
}
