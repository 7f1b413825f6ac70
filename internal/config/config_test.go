package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Mode != "monitor" {
		t.Fatalf("default mode=%q want monitor", cfg.Mode)
	}
	if got := cfg.Triangle.Markets(); len(got) != 3 || got[0] != "XRP-AUD" || got[1] != "XRP-BTC" || got[2] != "BTC-AUD" {
		t.Fatalf("default markets=%v", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := Defaults()
		cfg.LogLevel = tt.in
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate_TradeModeRequiresCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("trade mode without credentials passed validation")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("err=%v, want credential complaint", err)
	}

	cfg.Exchange.ApiKey = "k"
	cfg.Exchange.ApiSecret = "s"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("trade mode with credentials: %v", err)
	}
}

func TestValidate_RejectsDuplicateMarkets(t *testing.T) {
	cfg := Defaults()
	cfg.Triangle.MarketAB = cfg.Triangle.MarketFiatA

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate market") {
		t.Fatalf("err=%v, want duplicate market complaint", err)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "yolo"
	cfg.Triangle.TradingAmount = 0
	cfg.Watchdog.Timeout = duration{0}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid config passed validation")
	}
	for _, want := range []string{"unknown mode", "trading_amount", "watchdog"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err %v missing %q", err, want)
		}
	}
}

func TestValidate_PollBoundOrdering(t *testing.T) {
	cfg := Defaults()
	cfg.Execution.PollInterval = duration{10 * time.Second}
	cfg.Execution.MaxPollDuration = duration{5 * time.Second}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "max_poll_duration") {
		t.Fatalf("err=%v, want poll ordering complaint", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Triangle.TradingAmount != 200 {
		t.Fatalf("trading_amount=%v want default 200", cfg.Triangle.TradingAmount)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
mode = "trade"
log_level = "debug"

[exchange]
api_key = "file-key"
api_secret = "file-secret"

[triangle]
market_fiat_a = "ETH-AUD"
market_ab = "ETH-BTC"
market_b_fiat = "BTC-AUD"
trading_amount = 500.0

[execution]
poll_interval = "3s"
max_poll_duration = "2m"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "trade" || cfg.LogLevel != "debug" {
		t.Fatalf("mode=%q log_level=%q", cfg.Mode, cfg.LogLevel)
	}
	if cfg.Triangle.MarketFiatA != "ETH-AUD" || cfg.Triangle.TradingAmount != 500 {
		t.Fatalf("triangle=%+v", cfg.Triangle)
	}
	if cfg.Execution.PollInterval.Duration != 3*time.Second {
		t.Fatalf("poll_interval=%v want 3s", cfg.Execution.PollInterval.Duration)
	}
	if cfg.Execution.MaxPollDuration.Duration != 2*time.Minute {
		t.Fatalf("max_poll_duration=%v want 2m", cfg.Execution.MaxPollDuration.Duration)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Watchdog.Timeout.Duration != 10*time.Second {
		t.Fatalf("watchdog timeout=%v want default 10s", cfg.Watchdog.Timeout.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[exchange]
api_key = "file-key"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRIARB_EXCHANGE_API_KEY", "env-key")
	t.Setenv("TRIARB_TRIANGLE_TRADING_AMOUNT", "750.5")
	t.Setenv("TRIARB_WATCHDOG_TIMEOUT", "30s")
	t.Setenv("TRIARB_REDIS_TLS_ENABLED", "true")
	t.Setenv("TRIARB_MODE", "monitor")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Exchange.ApiKey != "env-key" {
		t.Fatalf("api_key=%q want env override", cfg.Exchange.ApiKey)
	}
	if cfg.Triangle.TradingAmount != 750.5 {
		t.Fatalf("trading_amount=%v want 750.5", cfg.Triangle.TradingAmount)
	}
	if cfg.Watchdog.Timeout.Duration != 30*time.Second {
		t.Fatalf("watchdog timeout=%v want 30s", cfg.Watchdog.Timeout.Duration)
	}
	if !cfg.Redis.TLSEnabled {
		t.Fatal("redis tls_enabled env override ignored")
	}
}

func TestEnvOverride_MalformedValueIgnored(t *testing.T) {
	t.Setenv("TRIARB_TRIANGLE_TRADING_AMOUNT", "not-a-number")
	t.Setenv("TRIARB_WATCHDOG_TIMEOUT", "soon")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Triangle.TradingAmount != 200 {
		t.Fatalf("trading_amount=%v, malformed override applied", cfg.Triangle.TradingAmount)
	}
	if cfg.Watchdog.Timeout.Duration != 10*time.Second {
		t.Fatalf("watchdog timeout=%v, malformed override applied", cfg.Watchdog.Timeout.Duration)
	}
}
