// Package config defines the top-level configuration for the triangular
// arbitrage bot and provides validation helpers.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRIARB_* environment variables.
type Config struct {
	Exchange  ExchangeConfig  `toml:"exchange"`
	Triangle  TriangleConfig  `toml:"triangle"`
	Fees      FeesConfig      `toml:"fees"`
	Execution ExecutionConfig `toml:"execution"`
	Watchdog  WatchdogConfig  `toml:"watchdog"`
	Redis     RedisConfig     `toml:"redis"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// ExchangeConfig holds BTC Markets API endpoints and credentials.
type ExchangeConfig struct {
	BaseURL   string `toml:"base_url"`
	WsURL     string `toml:"ws_url"`
	ApiKey    string `toml:"api_key"`
	ApiSecret string `toml:"api_secret"`
}

// TriangleConfig names the three linked markets and the trading notional.
// MarketFiatA is the fiat/first-crypto market (e.g. "XRP-AUD"), MarketAB the
// crypto-crypto middle market (e.g. "XRP-BTC"), and MarketBFiat the market
// closing the loop back to fiat (e.g. "BTC-AUD"). TradingAmount is the fixed
// fiat notional committed per arbitrage attempt.
type TriangleConfig struct {
	MarketFiatA   string  `toml:"market_fiat_a"`
	MarketAB      string  `toml:"market_ab"`
	MarketBFiat   string  `toml:"market_b_fiat"`
	TradingAmount float64 `toml:"trading_amount"`
}

// Markets returns the three market IDs in evaluation order.
func (t TriangleConfig) Markets() []string {
	return []string{t.MarketFiatA, t.MarketAB, t.MarketBFiat}
}

// FeesConfig holds the fee tier defaults and the refresh cadence for the
// trading fee. Maker may be negative (a rebate).
type FeesConfig struct {
	Trading         float64  `toml:"trading"`
	Taker           float64  `toml:"taker"`
	Maker           float64  `toml:"maker"`
	RefreshInterval duration `toml:"refresh_interval"`
}

// ExecutionConfig holds the completion-poll parameters.
type ExecutionConfig struct {
	PollInterval    duration `toml:"poll_interval"`
	MaxPollDuration duration `toml:"max_poll_duration"`
}

// WatchdogConfig holds the feed liveness timeout.
type WatchdogConfig struct {
	Timeout duration `toml:"timeout"`
}

// RedisConfig holds Redis connection parameters. Leaving Addr empty disables
// the quote mirror and the REST rate limiter.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. The fee
// defaults match the BTC Markets published tiers: 0.85% trading fee on fiat
// markets, 0.2% taker fee, -0.05% maker rebate.
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			BaseURL: "https://api.btcmarkets.net",
			WsURL:   "wss://socket.btcmarkets.net/v2",
		},
		Triangle: TriangleConfig{
			MarketFiatA:   "XRP-AUD",
			MarketAB:      "XRP-BTC",
			MarketBFiat:   "BTC-AUD",
			TradingAmount: 200,
		},
		Fees: FeesConfig{
			Trading:         0.0085,
			Taker:           0.002,
			Maker:           -0.0005,
			RefreshInterval: duration{1 * time.Hour},
		},
		Execution: ExecutionConfig{
			PollInterval:    duration{2 * time.Second},
			MaxPollDuration: duration{5 * time.Minute},
		},
		Watchdog: WatchdogConfig{
			Timeout: duration{10 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// SlogLevel maps LogLevel onto its slog constant. Unknown values fall back to
// info; Validate rejects them before this matters.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":   true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Exchange.BaseURL == "" {
		errs = append(errs, "exchange: base_url must be set")
	}
	if c.Exchange.WsURL == "" {
		errs = append(errs, "exchange: ws_url must be set")
	}
	// Credentials are only needed when orders will actually be placed.
	if strings.ToLower(c.Mode) == "trade" {
		if c.Exchange.ApiKey == "" || c.Exchange.ApiSecret == "" {
			errs = append(errs, "exchange: api_key and api_secret must be set for mode trade")
		}
	}

	if c.Triangle.MarketFiatA == "" || c.Triangle.MarketAB == "" || c.Triangle.MarketBFiat == "" {
		errs = append(errs, "triangle: market_fiat_a, market_ab and market_b_fiat must all be set")
	}
	seen := map[string]bool{}
	for _, id := range c.Triangle.Markets() {
		if id == "" {
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Sprintf("triangle: duplicate market %q", id))
		}
		seen[id] = true
	}
	if c.Triangle.TradingAmount <= 0 {
		errs = append(errs, "triangle: trading_amount must be positive")
	}

	if c.Fees.Trading < 0 {
		errs = append(errs, "fees: trading must not be negative")
	}
	if c.Fees.Taker < 0 {
		errs = append(errs, "fees: taker must not be negative")
	}
	if c.Fees.RefreshInterval.Duration < 0 {
		errs = append(errs, "fees: refresh_interval must not be negative")
	}

	if c.Execution.PollInterval.Duration <= 0 {
		errs = append(errs, "execution: poll_interval must be positive")
	}
	if c.Execution.MaxPollDuration.Duration <= 0 {
		errs = append(errs, "execution: max_poll_duration must be positive")
	}
	if c.Execution.MaxPollDuration.Duration < c.Execution.PollInterval.Duration {
		errs = append(errs, "execution: max_poll_duration must not be shorter than poll_interval")
	}

	if c.Watchdog.Timeout.Duration <= 0 {
		errs = append(errs, "watchdog: timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
