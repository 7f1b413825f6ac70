package arb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

// Coordinator drives the execution of one arbitrage order: it closes the
// trade gate, submits the three legs as a set, polls the open-orders query
// until no order attributable to the submission remains, and reopens the
// gate.
//
// Submission is not transactional. When some legs place and others are
// rejected the placed legs are left live and monitored; an unmonitored live
// order would be worse than a lopsided position, so partial failure is
// reported, not rolled back.
type Coordinator struct {
	exchange domain.Exchange
	gate     *TradeGate
	logger   *slog.Logger

	pollInterval    time.Duration
	maxPollDuration time.Duration
}

// NewCoordinator creates a coordinator that submits through exchange and
// serializes executions with gate. pollInterval is the fixed delay between
// open-order queries (a deliberate throttle for the exchange's rate limit);
// maxPollDuration caps how long the gate may stay closed if the exchange
// never reports completion.
func NewCoordinator(exchange domain.Exchange, gate *TradeGate, pollInterval, maxPollDuration time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		exchange:        exchange,
		gate:            gate,
		logger:          logger.With(slog.String("component", "coordinator")),
		pollInterval:    pollInterval,
		maxPollDuration: maxPollDuration,
	}
}

// Execute runs the full execution cycle for one opportunity and blocks until
// the gate is released again. If a trade is already in flight the opportunity
// is dropped (not queued) and domain.ErrTradeInFlight is returned.
func (c *Coordinator) Execute(ctx context.Context, opp domain.Opportunity) error {
	if !c.gate.TryAcquire() {
		return domain.ErrTradeInFlight
	}
	defer c.gate.Release()

	start := time.Now()
	log := c.logger.With(
		slog.String("case", opp.Case.String()),
		slog.Float64("turnover", opp.Turnover),
	)
	log.Info("placing arbitrage order")

	placed, err := c.submit(ctx, opp.Order)
	if len(placed) == 0 {
		// Nothing live on the exchange; there is nothing to wait for.
		log.Error("all legs failed to place", slog.String("error", err.Error()))
		return fmt.Errorf("arb: submit order: %w", err)
	}
	if err != nil {
		// Partial placement is a recognized risk surfaced to the operator;
		// the placed legs are still polled to completion below.
		log.Error("order partially placed",
			slog.Int("placed", len(placed)),
			slog.String("error", err.Error()),
		)
	}

	pollErr := c.waitOnOrders(ctx, placed, log)

	log.Info("trade cycle completed",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("legs_placed", len(placed)),
	)
	return pollErr
}

// submit places the three legs as independent concurrent requests and returns
// whichever placements succeeded, plus the joined error for any that did not.
func (c *Coordinator) submit(ctx context.Context, order domain.ArbitrageOrder) ([]domain.PlacedOrder, error) {
	var (
		results [3]domain.PlacedOrder
		errs    [3]error
		ok      [3]bool
	)

	g, ctx := errgroup.WithContext(ctx)
	for i, l := range order.Legs {
		i, l := i, l
		g.Go(func() error {
			req := domain.NewOrder{
				MarketID:      l.MarketID,
				Side:          l.Side,
				Type:          "Limit",
				Price:         l.Price,
				Amount:        l.Amount,
				ClientOrderID: uuid.New().String(),
			}
			res, err := c.exchange.PlaceOrder(ctx, req)
			if err != nil {
				errs[i] = fmt.Errorf("leg %d %s %s: %w", i+1, l.Side, l.MarketID, err)
				return nil // one rejected leg must not cancel its siblings
			}
			results[i] = res
			ok[i] = true
			c.logger.Debug("leg placed",
				slog.Int("leg", i+1),
				slog.String("market", l.MarketID),
				slog.String("side", string(l.Side)),
				slog.String("order_id", res.OrderID),
			)
			return nil
		})
	}
	_ = g.Wait()

	placed := make([]domain.PlacedOrder, 0, 3)
	var err error
	for i := range results {
		if ok[i] {
			placed = append(placed, results[i])
		} else if err == nil {
			err = errs[i]
		} else {
			err = fmt.Errorf("%w; %w", err, errs[i])
		}
	}
	return placed, err
}

// waitOnOrders polls the open-orders query at the configured cadence until no
// order from this submission remains open, the poll deadline passes, or ctx
// is cancelled. A failed query is retried on the next tick rather than
// escalated; the deadline guarantees the gate cannot stay closed forever if
// the exchange becomes unreachable.
func (c *Coordinator) waitOnOrders(ctx context.Context, placed []domain.PlacedOrder, log *slog.Logger) error {
	mine := make(map[string]struct{}, len(placed))
	for _, p := range placed {
		mine[p.OrderID] = struct{}{}
	}

	deadline := time.Now().Add(c.maxPollDuration)
	for {
		open, err := c.exchange.GetOpenOrders(ctx)
		if err != nil {
			log.Warn("open orders query failed, retrying", slog.String("error", err.Error()))
		} else {
			remaining := 0
			for _, o := range open {
				if _, isMine := mine[o.OrderID]; isMine {
					remaining++
				}
			}
			if remaining == 0 {
				return nil
			}
			log.Info("waiting on open orders", slog.Int("remaining", remaining))
		}

		if time.Now().After(deadline) {
			log.Error("giving up waiting for order completion",
				slog.Duration("max_poll_duration", c.maxPollDuration),
			)
			return fmt.Errorf("arb: wait on orders: %w", domain.ErrPollDeadline)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}
