package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"MarketLens/internal/model"
)

// Providers accepted in data_source.provider.
var Providers = []string{"coingecko", "binance", "ohlc", "dexscreener", "mock"}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr" toml:"addr"`

		// AllowedOrigins lists browser origins accepted on /ws besides the
		// server's own host. "*" accepts any origin.
		AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
	} `yaml:"server" toml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	DataSource struct {
		Provider    string   `yaml:"provider" toml:"provider"`
		Fallbacks   []string `yaml:"fallbacks" toml:"fallbacks"`
		BaseURL     string   `yaml:"base_url" toml:"base_url"`
		APIKey      string   `yaml:"api_key" toml:"api_key"`
		APISecret   string   `yaml:"api_secret" toml:"api_secret"`
		Pairs       bool     `yaml:"pairs" toml:"pairs"`
		HistoryDays int      `yaml:"history_days" toml:"history_days"`
		CacheTTL    Duration `yaml:"cache_ttl" toml:"cache_ttl"`
	} `yaml:"data_source" toml:"data_source"`
	Watchlist []string `yaml:"watchlist" toml:"watchlist"`
	Schedule  struct {
		RefreshCron string `yaml:"refresh_cron" toml:"refresh_cron"`
		Workers     int    `yaml:"workers" toml:"workers"`
	} `yaml:"schedule" toml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	LogLevel string `yaml:"log_level" toml:"log_level"`
	Proxy    string `yaml:"proxy" toml:"proxy"`
}

// Duration reads "90s"-style strings from YAML and TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Load reads config from a YAML or TOML file (chosen by extension), loads an
// optional .env file, then applies environment variable overrides and defaults.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; existing environment variables win over it.
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MARKETLENS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MARKETLENS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = splitList(v)
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.Workers = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "coingecko"
	}
	cfg.DataSource.Provider = strings.ToLower(cfg.DataSource.Provider)
	for i, f := range cfg.DataSource.Fallbacks {
		cfg.DataSource.Fallbacks[i] = strings.ToLower(strings.TrimSpace(f))
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 30
	}
	if cfg.DataSource.CacheTTL.Duration == 0 {
		cfg.DataSource.CacheTTL.Duration = 2 * time.Minute
	}
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = []string{"BTC", "ETH", "SOL"}
	}
	for i, s := range cfg.Watchlist {
		cfg.Watchlist[i] = model.CanonicalSymbol(s)
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */15 * * * *"
	}
	if cfg.Schedule.Workers == 0 {
		cfg.Schedule.Workers = 4
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketlens.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !knownProvider(c.DataSource.Provider) {
		return fmt.Errorf("data_source.provider %q is not one of %s", c.DataSource.Provider, strings.Join(Providers, ", "))
	}
	for _, f := range c.DataSource.Fallbacks {
		if !knownProvider(f) {
			return fmt.Errorf("data_source.fallbacks: unknown provider %q", f)
		}
	}
	if c.DataSource.Provider == "ohlc" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for the ohlc provider")
	}
	if c.Schedule.Workers <= 0 {
		return fmt.Errorf("schedule.workers must be positive")
	}
	if c.Schedule.RefreshCron == "" {
		return fmt.Errorf("schedule.refresh_cron is required")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether alerts and chat polling should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func knownProvider(name string) bool {
	for _, p := range Providers {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}
