package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MARKETLENS_ADDR", "DATA_PROVIDER", "DATA_BASE_URL", "DATA_API_KEY",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SQLITE_PATH", "LOG_LEVEL", "HTTPS_PROXY",
		"WATCHLIST", "REFRESH_CRON", "WORKERS", "MARKETLENS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" || cfg.DataSource.Provider != "coingecko" || cfg.Schedule.Workers != 4 {
		t.Errorf("defaults = %+v", cfg)
	}
	if strings.Join(cfg.Watchlist, ",") != "BTC,ETH,SOL" {
		t.Errorf("watchlist = %v", cfg.Watchlist)
	}
	if cfg.DataSource.CacheTTL.Duration != 2*time.Minute {
		t.Errorf("cache ttl = %v", cfg.DataSource.CacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram enabled without credentials")
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
data_source:
  provider: Binance
  fallbacks: [coingecko]
  cache_ttl: 90s
  history_days: 7
watchlist: [btc, " eth"]
schedule:
  workers: 2
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9000" || cfg.DataSource.Provider != "binance" || cfg.DataSource.HistoryDays != 7 {
		t.Errorf("cfg = %+v", cfg.DataSource)
	}
	if cfg.DataSource.CacheTTL.Duration != 90*time.Second {
		t.Errorf("cache ttl = %v", cfg.DataSource.CacheTTL)
	}
	if strings.Join(cfg.Watchlist, ",") != "BTC,ETH" {
		t.Errorf("watchlist = %v", cfg.Watchlist)
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "config.toml", `
watchlist = ["doge"]
log_level = "debug"

[data_source]
provider = "mock"
cache_ttl = "5m"

[telegram]
bot_token = "t"
chat_id = "1"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != "mock" || cfg.LogLevel != "debug" || cfg.Watchlist[0] != "DOGE" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DataSource.CacheTTL.Duration != 5*time.Minute {
		t.Errorf("cache ttl = %v", cfg.DataSource.CacheTTL)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WATCHLIST", "btc, ,pepe,So11111111111111111111111111111111111111112")
	t.Setenv("MARKETLENS_ALLOWED_ORIGINS", "https://dash.example.com, http://localhost:3000")
	t.Setenv("DATA_PROVIDER", "mock")
	t.Setenv("WORKERS", "8")
	t.Setenv("REFRESH_CRON", "0 * * * * *")
	p := writeFile(t, "config.yaml", "data_source:\n  provider: coingecko\n")

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != "mock" || cfg.Schedule.Workers != 8 || cfg.Schedule.RefreshCron != "0 * * * * *" {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.Watchlist, ",") != "BTC,PEPE,So11111111111111111111111111111111111111112" {
		t.Errorf("watchlist = %v", cfg.Watchlist)
	}
	if strings.Join(cfg.Server.AllowedOrigins, ",") != "https://dash.example.com,http://localhost:3000" {
		t.Errorf("allowed origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeFile(t, "bad.yaml", "server: [")); err == nil {
		t.Error("malformed yaml should fail")
	}
	if _, err := Load(writeFile(t, "bad.toml", "[data_source\n")); err == nil {
		t.Error("malformed toml should fail")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		applyDefaults(c)
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "yahoo" }, "provider"},
		{"unknown fallback", func(c *Config) { c.DataSource.Fallbacks = []string{"nope"} }, "fallbacks"},
		{"ohlc needs url", func(c *Config) { c.DataSource.Provider = "ohlc" }, "base_url"},
		{"workers", func(c *Config) { c.Schedule.Workers = -1 }, "workers"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, "together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
