// Package analyzer runs the full pipeline for a symbol: fetch, normalize,
// indicators, regime signals, composite score and narrative.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"MarketLens/internal/calculator"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/strategy"
	"MarketLens/internal/window"
)

const (
	DefaultDays    = 30
	DefaultWorkers = 4
)

// Source yields a normalized series for a symbol.
type Source interface {
	Collect(ctx context.Context, symbol string, days int) (model.Series, error)
}

// Analysis is one pipeline run: the snapshot plus the frame it was read from.
type Analysis struct {
	Snapshot *model.Snapshot
	Frame    *model.Frame
}

// Analyzer is safe for concurrent use; it holds no per-run state.
type Analyzer struct {
	src     Source
	days    int
	workers int
	log     zerolog.Logger
	now     func() time.Time
}

func New(src Source, days, workers int, log zerolog.Logger) *Analyzer {
	if days <= 0 {
		days = DefaultDays
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Analyzer{src: src, days: days, workers: workers, log: log, now: time.Now}
}

// Analyze fetches the default history window for symbol and analyzes it.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	return a.AnalyzeDays(ctx, symbol, a.days)
}

// AnalyzeDays is Analyze with an explicit history window.
func (a *Analyzer) AnalyzeDays(ctx context.Context, symbol string, days int) (*Analysis, error) {
	start := time.Now()
	defer func() { metrics.AnalysisSeconds.Observe(time.Since(start).Seconds()) }()

	symbol = model.CanonicalSymbol(symbol)
	series, err := a.src.Collect(ctx, symbol, days)
	if err != nil {
		a.countFailure(symbol, err)
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	res, err := a.AnalyzeSeries(series)
	if err != nil {
		a.countFailure(symbol, err)
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	a.log.Debug().Str("symbol", symbol).Str("source", series.Source).Int("rows", series.Len()).
		Float64("bias", res.Snapshot.Score.Bias).Msg("analysis complete")
	return res, nil
}

// AnalyzeSeries runs the pure part of the pipeline on an already normalized series.
func (a *Analyzer) AnalyzeSeries(series model.Series) (*Analysis, error) {
	frame, err := calculator.Compute(series)
	if err != nil {
		return nil, err
	}
	latest := frame.Latest()
	sig := strategy.Classify(latest, frame)
	score := strategy.Score(latest, sig, frame)

	snap := &model.Snapshot{
		ID:          uuid.NewString(),
		Symbol:      series.Symbol,
		Source:      series.Source,
		GeneratedAt: a.now().UTC(),
		Price:       latest.Close,
		Synthetic:   series.Synthetic,
		Rollups:     window.Rollups(series),
		Latest:      latest,
		Signals:     sig,
		Score:       score,
		Pair:        series.Pair,
	}
	snap.Narrative = notifier.Compose(series.Symbol, snap)
	return &Analysis{Snapshot: snap, Frame: frame}, nil
}

func (a *Analyzer) countFailure(symbol string, err error) {
	if model.IsNotEnoughData(err) {
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeNoData).Inc()
		return
	}
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeError).Inc()
	a.log.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
}

// BatchResult is the outcome for one symbol of AnalyzeBatch.
type BatchResult struct {
	Symbol   string
	Analysis *Analysis
	Err      error
}

// AnalyzeBatch analyzes symbols on a bounded pool of workers. Results keep
// the input order; a failing symbol does not stop the others.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, symbols []string) []BatchResult {
	results := make([]BatchResult, len(symbols))
	batchID := uuid.NewString()
	a.log.Info().Str("batch", batchID).Int("symbols", len(symbols)).Msg("batch started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			res, err := a.Analyze(gctx, sym)
			results[i] = BatchResult{Symbol: model.CanonicalSymbol(sym), Analysis: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	a.log.Info().Str("batch", batchID).Int("failed", failed).Msg("batch finished")
	return results
}

// Snapshots returns the successful snapshots of a batch.
func Snapshots(results []BatchResult) []*model.Snapshot {
	out := make([]*model.Snapshot, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Analysis != nil {
			out = append(out, r.Analysis.Snapshot)
		}
	}
	return out
}

// DaysFor returns how many days of history a lookback needs, never less
// than the analyzer's default window.
func (a *Analyzer) DaysFor(lb window.Lookback) int {
	if lb.Duration <= 0 {
		return 365
	}
	days := int((lb.Duration + 24*time.Hour - 1) / (24 * time.Hour))
	return max(days, a.days)
}

// Ask answers a free-text question about symbol with the narrative section
// matching its intent.
func (a *Analyzer) Ask(ctx context.Context, symbol, question string) (notifier.Mode, string, error) {
	mode := notifier.ClassifyIntent(question)
	res, err := a.Analyze(ctx, symbol)
	if err != nil {
		return mode, "", err
	}
	return mode, notifier.ComposeFor(mode, res.Snapshot.Symbol, res.Snapshot), nil
}
