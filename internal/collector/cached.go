package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MarketLens/internal/cache"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
)

// CachedFetcher serves recent provider responses from a cache. A cache write
// failure is logged and never fails the fetch.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   cache.Cache
	TTL     time.Duration
	log     zerolog.Logger
}

func NewCachedFetcher(f Fetcher, c cache.Cache, ttl time.Duration, log zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{Fetcher: f, Cache: c, TTL: ttl, log: log}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() }

func (c *CachedFetcher) key(symbol string, days int) string {
	return fmt.Sprintf("history:%s:%s:%d", c.Fetcher.Name(), model.CanonicalSymbol(symbol), days)
}

func (c *CachedFetcher) FetchHistory(ctx context.Context, symbol string, days int) (Payload, error) {
	key := c.key(symbol, days)
	if body, ok := c.Cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
		return Payload{Source: c.Fetcher.Name(), Body: body}, nil
	}
	metrics.CacheHitsTotal.WithLabelValues("miss").Inc()

	p, err := c.Fetcher.FetchHistory(ctx, symbol, days)
	if err != nil {
		return Payload{}, err
	}
	if err := c.Cache.Put(key, p.Body, c.TTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache put failed")
	}
	return p, nil
}
