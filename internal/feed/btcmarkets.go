// Package feed runs the BTC Markets market-data session: it connects the
// WebSocket client, performs the subscription handshake, and routes typed
// events to the tick dispatcher and the connection watchdog.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hezh08/triangular-arbitrage/internal/arb"
	"github.com/hezh08/triangular-arbitrage/internal/domain"
	"github.com/hezh08/triangular-arbitrage/internal/platform/btcmarkets"
)

// TickHandler is invoked for every tick, in arrival order.
type TickHandler func(ctx context.Context, q domain.MarketQuote)

// Runner owns one feed session. A session ends when the context is
// cancelled, the server sends an error-typed message, the connection drops,
// or the watchdog times out; there is no automatic reconnect. Operators
// restart the process under a supervisor.
type Runner struct {
	wsURL           string
	marketIDs       []string
	watchdogTimeout time.Duration
	onTick          TickHandler
	logger          *slog.Logger
}

// NewRunner creates a feed runner subscribing the given markets.
func NewRunner(wsURL string, marketIDs []string, watchdogTimeout time.Duration, onTick TickHandler, logger *slog.Logger) *Runner {
	return &Runner{
		wsURL:           wsURL,
		marketIDs:       marketIDs,
		watchdogTimeout: watchdogTimeout,
		onTick:          onTick,
		logger:          logger.With(slog.String("component", "feed")),
	}
}

// Run connects, subscribes to tick and heartbeat for the configured markets,
// arms the watchdog, and blocks until the session ends.
func (r *Runner) Run(ctx context.Context) error {
	client := btcmarkets.NewWSClient(r.wsURL)
	defer client.Close()

	var fatalOnce sync.Once
	fatal := make(chan struct{})
	terminate := func() { fatalOnce.Do(func() { close(fatal) }) }

	// The watchdog must end the session, not just close the socket: once the
	// client is closed its read loop exits quietly, so nothing else would
	// unblock the select below.
	watchdog := arb.NewWatchdog(r.watchdogTimeout, func() error {
		err := client.Close()
		terminate()
		return err
	}, r.logger)

	client.OnEvent(func(ev domain.FeedEvent) {
		switch ev.Type {
		case domain.FeedHeartbeat:
			watchdog.Reset()

		case domain.FeedTick:
			watchdog.Reset()
			r.onTick(ctx, ev.Tick)

		case domain.FeedError:
			r.logger.Error("feed error",
				slog.Int("code", ev.Code),
				slog.String("message", ev.Message),
			)
			_ = client.Close()
			terminate()
		}
	})

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if err := client.Subscribe(ctx, r.marketIDs, []string{"tick", "heartbeat"}); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	watchdog.Start(ctx)

	r.logger.Info("connected to exchange",
		slog.String("url", r.wsURL),
		slog.Int("markets", len(r.marketIDs)),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-fatal:
		return fmt.Errorf("feed: %w", domain.ErrFeedFatal)
	}
}
