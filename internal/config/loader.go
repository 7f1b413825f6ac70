package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRIARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
//
// A missing file is not an error: defaults plus environment overrides are
// enough to run in monitor mode.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRIARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject API credentials at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Exchange ──
	setStr(&cfg.Exchange.BaseURL, "TRIARB_EXCHANGE_BASE_URL")
	setStr(&cfg.Exchange.WsURL, "TRIARB_EXCHANGE_WS_URL")
	setStr(&cfg.Exchange.ApiKey, "TRIARB_EXCHANGE_API_KEY")
	setStr(&cfg.Exchange.ApiSecret, "TRIARB_EXCHANGE_API_SECRET")

	// ── Triangle ──
	setStr(&cfg.Triangle.MarketFiatA, "TRIARB_TRIANGLE_MARKET_FIAT_A")
	setStr(&cfg.Triangle.MarketAB, "TRIARB_TRIANGLE_MARKET_AB")
	setStr(&cfg.Triangle.MarketBFiat, "TRIARB_TRIANGLE_MARKET_B_FIAT")
	setFloat64(&cfg.Triangle.TradingAmount, "TRIARB_TRIANGLE_TRADING_AMOUNT")

	// ── Fees ──
	setFloat64(&cfg.Fees.Trading, "TRIARB_FEES_TRADING")
	setFloat64(&cfg.Fees.Taker, "TRIARB_FEES_TAKER")
	setFloat64(&cfg.Fees.Maker, "TRIARB_FEES_MAKER")
	setDuration(&cfg.Fees.RefreshInterval, "TRIARB_FEES_REFRESH_INTERVAL")

	// ── Execution ──
	setDuration(&cfg.Execution.PollInterval, "TRIARB_EXECUTION_POLL_INTERVAL")
	setDuration(&cfg.Execution.MaxPollDuration, "TRIARB_EXECUTION_MAX_POLL_DURATION")

	// ── Watchdog ──
	setDuration(&cfg.Watchdog.Timeout, "TRIARB_WATCHDOG_TIMEOUT")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TRIARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRIARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRIARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRIARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRIARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRIARB_REDIS_TLS_ENABLED")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRIARB_MODE")
	setStr(&cfg.LogLevel, "TRIARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
