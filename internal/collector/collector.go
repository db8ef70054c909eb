// Package collector fetches raw price history from market data providers and
// turns it into normalized series.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/normalize"
)

// Collector tries its fetchers in order and returns the first usable series.
type Collector struct {
	Fetchers []Fetcher
	Pairs    PairFetcher
	log      zerolog.Logger
}

// NewCollector creates a new Collector. At least one fetcher is required.
func NewCollector(log zerolog.Logger, pairs PairFetcher, fetchers ...Fetcher) *Collector {
	return &Collector{Fetchers: fetchers, Pairs: pairs, log: log}
}

// Collect fetches and normalizes history for symbol covering roughly days.
// When every provider fails, a not-enough-data error wins over transport
// errors so callers can report it as such.
func (c *Collector) Collect(ctx context.Context, symbol string, days int) (model.Series, error) {
	if len(c.Fetchers) == 0 {
		return model.Series{}, errors.New("collector: no fetchers configured")
	}
	symbol = model.CanonicalSymbol(symbol)

	var noData, lastErr error
	for _, f := range c.Fetchers {
		p, err := f.FetchHistory(ctx, symbol, days)
		if err != nil {
			if ctx.Err() != nil {
				return model.Series{}, ctx.Err()
			}
			metrics.FetchErrorsTotal.WithLabelValues(f.Name()).Inc()
			c.log.Warn().Err(err).Str("symbol", symbol).Str("source", f.Name()).Msg("fetch failed")
			lastErr = err
			continue
		}

		series, err := normalize.Normalize(symbol, p.Source, p.Body)
		if err != nil {
			if model.IsNotEnoughData(err) {
				c.log.Warn().Err(err).Str("symbol", symbol).Str("source", p.Source).
					Str("reason", reason(err)).Msg("not enough data")
				noData = err
			} else {
				c.log.Error().Err(err).Str("symbol", symbol).Str("source", p.Source).Msg("normalize failed")
				lastErr = err
			}
			continue
		}

		c.attachPair(ctx, &series)
		return series, nil
	}

	if noData != nil {
		return model.Series{}, noData
	}
	return model.Series{}, fmt.Errorf("collect %s: %w", symbol, lastErr)
}

func (c *Collector) attachPair(ctx context.Context, s *model.Series) {
	if c.Pairs == nil || s.Pair != nil {
		return
	}
	info, err := c.Pairs.FetchPair(ctx, s.Symbol)
	if err != nil {
		c.log.Debug().Err(err).Str("symbol", s.Symbol).Msg("pair lookup failed")
		return
	}
	s.Pair = &info
}

func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptySeries):
		return "empty_series"
	case errors.Is(err, model.ErrInsufficientHistory):
		return "insufficient_history"
	default:
		return "unknown"
	}
}
