package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MarketLens/internal/model"
)

// Payload is a raw provider response handed to the normalizer untouched.
type Payload struct {
	Source string
	Body   []byte
}

// Fetcher loads raw price history for a symbol.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, days int) (Payload, error)
	Name() string
}

// PairFetcher loads point-in-time DEX pair data for a symbol.
type PairFetcher interface {
	FetchPair(ctx context.Context, symbol string) (model.PairInfo, error)
}

const defaultTimeout = 30 * time.Second

// maxResponseBytes caps a provider response body.
var maxResponseBytes int64 = 32 << 20

// newHTTPClient returns a client with an optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   defaultTimeout,
		Transport: transport,
	}
}

// getBody performs a GET and returns the body of a 200 response.
func getBody(ctx context.Context, client *http.Client, endpoint string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
