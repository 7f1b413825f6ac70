package domain

import (
	"context"
	"time"
)

// QuoteCache mirrors the latest quote per market to an external cache so
// operators and sibling tooling can observe current prices. It holds only the
// most recent quote, never history.
type QuoteCache interface {
	SetQuote(ctx context.Context, q MarketQuote) error
	GetQuote(ctx context.Context, marketID string) (MarketQuote, error)
}

// RateLimiter bounds how often a keyed operation may run, used to keep REST
// polling inside the exchange's rate limits.
type RateLimiter interface {
	// Allow reports whether one more request for key is permitted within the
	// window, counting the request when it is.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Wait blocks until a request for key is allowed or ctx is done.
	Wait(ctx context.Context, key string) error
}
