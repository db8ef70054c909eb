package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/cache"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/logger"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/web"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Str("provider", cfg.DataSource.Provider).Msg("MarketLens starting")

	if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("create data dir")
		}
	}

	// Recorder and cache share the SQLite file; either falls back to an
	// in-process implementation when the database cannot be opened.
	var rec recorder.Recorder
	if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log); err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
	}
	defer rec.Close()

	var kv cache.Cache
	if sc, err := cache.NewSQLite(cfg.Database.SQLitePath, log); err != nil {
		log.Warn().Err(err).Msg("init sqlite cache failed, using memory")
		kv = cache.NewMemory()
	} else {
		kv = sc
		defer sc.Close()
		if n, err := sc.Purge(); err == nil && n > 0 {
			log.Info().Int64("rows", n).Msg("purged expired cache entries")
		}
	}

	col := buildCollector(cfg, kv, log)
	an := analyzer.New(col, cfg.DataSource.HistoryDays, cfg.Schedule.Workers, log)

	var (
		tn   *notifier.TelegramNotifier
		sink notifier.Notifier = notifier.NoopNotifier{}
	)
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sink = tn
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := web.NewHub(log, cfg.Server.AllowedOrigins...)
	sched := scheduler.NewScheduler(ctx, an, sink, rec, hub, cfg.Watchlist, log)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, refreshing watchlist now")
		go sched.Refresh()
	}

	srv := web.NewServer(cfg.Server.Addr, an, rec, hub, log)
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("http server")
	}
	log.Info().Msg("MarketLens stopped")
}

// buildCollector orders the configured provider first, then its fallbacks,
// each behind the response cache.
func buildCollector(cfg *config.Config, kv cache.Cache, log zerolog.Logger) *collector.Collector {
	names := append([]string{cfg.DataSource.Provider}, cfg.DataSource.Fallbacks...)
	seen := make(map[string]bool)
	var fetchers []collector.Fetcher
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		f := newFetcher(name, cfg)
		fetchers = append(fetchers, collector.NewCachedFetcher(f, kv, cfg.DataSource.CacheTTL.Duration, log))
		log.Info().Str("source", f.Name()).Msg("data source enabled")
	}

	var pairs collector.PairFetcher
	if cfg.DataSource.Pairs {
		pairs = collector.NewDexScreenerFetcher("", cfg.Proxy)
	}
	return collector.NewCollector(log, pairs, fetchers...)
}

func newFetcher(name string, cfg *config.Config) collector.Fetcher {
	ds := cfg.DataSource
	primary := name == ds.Provider
	baseURL := func() string {
		if primary {
			return ds.BaseURL
		}
		return ""
	}
	switch name {
	case "binance":
		return collector.NewBinanceFetcher(ds.APIKey, ds.APISecret, baseURL())
	case "ohlc":
		return collector.NewOHLCFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy)
	case "dexscreener":
		return collector.NewDexScreenerFetcher(baseURL(), cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		key := ""
		if primary {
			key = ds.APIKey
		}
		return collector.NewCoinGeckoFetcher(baseURL(), key, cfg.Proxy)
	}
}
