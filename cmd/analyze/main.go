// Command analyze prints a one-shot snapshot table for the given symbols.
//
//	analyze -provider binance -days 7 BTC ETH SOL
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/cache"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/logger"
	"MarketLens/internal/model"
)

func main() {
	var (
		cfgPath   = flag.String("config", "configs/config.yaml", "config file (yaml or toml)")
		provider  = flag.String("provider", "", "override data_source.provider")
		days      = flag.Int("days", 0, "days of history to fetch")
		asJSON    = flag.Bool("json", false, "print snapshots as JSON")
		narrative = flag.Bool("narrative", false, "print the narrative under the table")
		timeout   = flag.Duration("timeout", 60*time.Second, "overall timeout")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *provider != "" {
		cfg.DataSource.Provider = strings.ToLower(*provider)
	}
	if *days > 0 {
		cfg.DataSource.HistoryDays = *days
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.NewWithWriter(os.Stderr, "warn")

	symbols := flag.Args()
	if len(symbols) == 0 {
		symbols = cfg.Watchlist
	}

	var f collector.Fetcher
	switch cfg.DataSource.Provider {
	case "binance":
		f = collector.NewBinanceFetcher(cfg.DataSource.APIKey, cfg.DataSource.APISecret, cfg.DataSource.BaseURL)
	case "ohlc":
		f = collector.NewOHLCFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "dexscreener":
		f = collector.NewDexScreenerFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	case "mock":
		f = &collector.MockFetcher{Price: 100}
	default:
		f = collector.NewCoinGeckoFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	cached := collector.NewCachedFetcher(f, cache.NewMemory(), time.Minute, log)
	an := analyzer.New(collector.NewCollector(log, nil, cached), cfg.DataSource.HistoryDays, cfg.Schedule.Workers, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	results := an.AnalyzeBatch(ctx, symbols)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analyzer.Snapshots(results)); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
		return
	}

	printTable(results)
	if *narrative {
		for _, r := range results {
			if r.Err == nil {
				fmt.Printf("\n%s\n", r.Analysis.Snapshot.Narrative)
			}
		}
	}
}

func printTable(results []analyzer.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("MarketLens | %s UTC", time.Now().UTC().Format("2006-01-02 15:04"))
	t.AppendHeader(table.Row{"Symbol", "Price", "1h", "24h", "7d", "Regime", "Bias", "Conf", "Up/Flat/Down", "Signals"})

	for _, r := range results {
		if r.Err != nil {
			msg := "error"
			if model.IsNotEnoughData(r.Err) {
				msg = model.NotEnoughDataMsg
			}
			t.AppendRow(table.Row{r.Symbol, "", "", "", "", "", text.FgYellow.Sprint(msg), "", "", ""})
			continue
		}
		s := r.Analysis.Snapshot
		p := s.Score.Probabilities
		t.AppendRow(table.Row{
			s.Symbol,
			fmt.Sprintf("%.6g", s.Price),
			change(s, "1h"), change(s, "24h"), change(s, "7d"),
			s.Signals.Regime,
			tilt(s.Score.TiltLabel),
			fmt.Sprintf("%.0f%%", s.Score.Confidence),
			fmt.Sprintf("%d/%d/%d", p.Up, p.Flat, p.Down),
			flags(s.Signals),
		})
	}
	t.Render()
}

func change(s *model.Snapshot, key string) string {
	v, ok := s.Change(key)
	if !ok {
		return "n/a"
	}
	str := fmt.Sprintf("%+.2f%%", v)
	if v >= 0 {
		return text.FgGreen.Sprint(str)
	}
	return text.FgRed.Sprint(str)
}

func tilt(label string) string {
	switch {
	case strings.HasSuffix(label, "up"):
		return text.FgGreen.Sprint(label)
	case strings.HasSuffix(label, "down"):
		return text.FgRed.Sprint(label)
	}
	return label
}

func flags(sig model.RegimeSignals) string {
	var out []string
	if sig.Breakout {
		out = append(out, "breakout")
	}
	if sig.Breakdown {
		out = append(out, "breakdown")
	}
	if sig.Squeeze {
		out = append(out, "squeeze")
	}
	if sig.VolumeSpike {
		out = append(out, "vol spike")
	}
	if sig.MACDCross != model.CrossNone {
		out = append(out, "macd "+string(sig.MACDCross))
	}
	if sig.RSIState != model.RSINeutral {
		out = append(out, "rsi "+string(sig.RSIState))
	}
	return strings.Join(out, ", ")
}
