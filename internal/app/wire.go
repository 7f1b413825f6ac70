package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hezh08/triangular-arbitrage/internal/cache/redis"
	"github.com/hezh08/triangular-arbitrage/internal/config"
	"github.com/hezh08/triangular-arbitrage/internal/crypto"
	"github.com/hezh08/triangular-arbitrage/internal/domain"
	"github.com/hezh08/triangular-arbitrage/internal/platform/btcmarkets"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	Exchange domain.Exchange
	Fees     *domain.FeeSchedule

	// Optional Redis-backed pieces; nil when redis.addr is not configured.
	Quotes  domain.QuoteCache
	Limiter domain.RateLimiter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Fees: domain.NewFeeSchedule(cfg.Fees.Trading, cfg.Fees.Taker, cfg.Fees.Maker),
	}

	// --- Redis (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Quotes = redis.NewQuoteCache(redisClient)
		deps.Limiter = redis.NewRateLimiter(redisClient)
		logger.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	// --- BTC Markets REST client ---
	var auth *crypto.HMACAuth
	if cfg.Exchange.ApiKey != "" {
		auth = &crypto.HMACAuth{
			Key:    cfg.Exchange.ApiKey,
			Secret: cfg.Exchange.ApiSecret,
		}
	}
	deps.Exchange = btcmarkets.NewClient(cfg.Exchange.BaseURL, auth, deps.Limiter)

	return deps, cleanup, nil
}
