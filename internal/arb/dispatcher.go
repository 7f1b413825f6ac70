package arb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

// OpportunityExecutor executes one actionable opportunity. Implemented by
// Coordinator; nil in monitor mode.
type OpportunityExecutor interface {
	Execute(ctx context.Context, opp domain.Opportunity) error
}

// Dispatcher is the entry point invoked for every inbound tick. It refreshes
// the price book first, then evaluates when the book is ready and no trade is
// in flight. Prices keep updating even mid-trade so the first evaluation
// after the gate reopens uses fresh data.
type Dispatcher struct {
	book      *domain.PriceBook
	evaluator *Evaluator
	gate      *TradeGate
	executor  OpportunityExecutor
	quotes    domain.QuoteCache // optional latest-quote mirror
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. executor may be nil, in which case
// actionable opportunities are logged but never executed. quotes may be nil.
func NewDispatcher(book *domain.PriceBook, evaluator *Evaluator, gate *TradeGate, executor OpportunityExecutor, quotes domain.QuoteCache, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		book:      book,
		evaluator: evaluator,
		gate:      gate,
		executor:  executor,
		quotes:    quotes,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// OnTick updates the book with q and, when the book is ready and the gate is
// open, evaluates the triangle and hands the first actionable opportunity to
// the executor. Execution runs on its own goroutine so tick processing
// continues while the trade is in flight.
func (d *Dispatcher) OnTick(ctx context.Context, q domain.MarketQuote) {
	d.book.Update(q)

	if d.quotes != nil {
		if err := d.quotes.SetQuote(ctx, q); err != nil {
			d.logger.Debug("quote mirror update failed", slog.String("error", err.Error()))
		}
	}

	if !d.book.IsReady() {
		d.logger.Debug("insufficient data", slog.String("market", q.MarketID))
		return
	}
	if d.gate.Held() {
		// Trade in place; this tick only refreshed prices.
		return
	}

	opps := d.evaluator.Evaluate(d.book)
	if len(opps) == 0 {
		return
	}

	// Fixed case ordering; the first actionable case wins and the gate drops
	// the rest.
	opp := opps[0]
	d.logger.Info("arbitrage opportunity",
		slog.String("case", opp.Case.String()),
		slog.Float64("turnover", opp.Turnover),
	)

	if d.executor == nil {
		return
	}
	go func() {
		if err := d.executor.Execute(ctx, opp); err != nil && !errors.Is(err, domain.ErrTradeInFlight) {
			d.logger.Error("execution failed", slog.String("error", err.Error()))
		}
	}()
}
