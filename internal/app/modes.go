package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hezh08/triangular-arbitrage/internal/arb"
	"github.com/hezh08/triangular-arbitrage/internal/domain"
	"github.com/hezh08/triangular-arbitrage/internal/feed"
)

// TradeMode runs the full loop: feed, evaluation, and three-leg execution.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	return a.run(ctx, deps, true)
}

// MonitorMode evaluates and logs opportunities without placing orders.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	return a.run(ctx, deps, false)
}

func (a *App) run(ctx context.Context, deps *Dependencies, execute bool) error {
	logger := slog.Default()
	markets := a.cfg.Triangle.Markets()

	book := domain.NewPriceBook(markets)
	gate := arb.NewTradeGate()
	evaluator := arb.NewEvaluator(
		a.cfg.Triangle.MarketFiatA,
		a.cfg.Triangle.MarketAB,
		a.cfg.Triangle.MarketBFiat,
		a.cfg.Triangle.TradingAmount,
		deps.Fees,
	)

	var executor arb.OpportunityExecutor
	if execute {
		executor = arb.NewCoordinator(
			deps.Exchange,
			gate,
			a.cfg.Execution.PollInterval.Duration,
			a.cfg.Execution.MaxPollDuration.Duration,
			logger,
		)
	}

	dispatcher := arb.NewDispatcher(book, evaluator, gate, executor, deps.Quotes, logger)

	a.seedBook(ctx, deps, book, markets)
	a.refreshTradingFee(ctx, deps, execute)

	runner := feed.NewRunner(
		a.cfg.Exchange.WsURL,
		markets,
		a.cfg.Watchdog.Timeout.Duration,
		dispatcher.OnTick,
		logger,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error { return a.feeRefreshLoop(ctx, deps, execute) })
	return g.Wait()
}

// seedBook fills the price book from the tickers snapshot so evaluation can
// begin before every market has ticked. Failure is not fatal; the feed will
// fill the book on its own.
func (a *App) seedBook(ctx context.Context, deps *Dependencies, book *domain.PriceBook, markets []string) {
	quotes, err := deps.Exchange.GetTickers(ctx, markets)
	if err != nil {
		a.logger.Warn("seeding price book failed",
			slog.String("error", err.Error()),
		)
		return
	}
	for _, q := range quotes {
		book.Update(q)
	}
	a.logger.Info("price book seeded",
		slog.Int("quotes", len(quotes)),
		slog.Bool("ready", book.IsReady()),
	)
}

// refreshTradingFee pulls the account's current taker fee rate into the fee
// schedule. The endpoint needs credentials, so in monitor mode the configured
// default is kept.
func (a *App) refreshTradingFee(ctx context.Context, deps *Dependencies, execute bool) {
	if !execute {
		return
	}
	fee, err := deps.Exchange.GetTakerFee(ctx)
	if err != nil {
		a.logger.Warn("trading fee refresh failed",
			slog.String("error", err.Error()),
		)
		return
	}
	deps.Fees.SetTradingFee(fee)
	a.logger.Info("trading fee refreshed", slog.Float64("fee", fee))
}

// feeRefreshLoop refreshes the trading fee on the configured interval until
// ctx is done. The fee changes with 30-day volume, not per tick, so this is
// deliberately out-of-band.
func (a *App) feeRefreshLoop(ctx context.Context, deps *Dependencies, execute bool) error {
	interval := a.cfg.Fees.RefreshInterval.Duration
	if !execute || interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.refreshTradingFee(ctx, deps, execute)
		}
	}
}
