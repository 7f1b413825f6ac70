package arb

import "sync/atomic"

// TradeGate is the single-trade-at-a-time guard. While held, no new
// arbitrage order may be formed; ticks still refresh the book underneath.
//
// The check-and-set is a single atomic operation so two near-simultaneous
// acquisition attempts can never both succeed.
type TradeGate struct {
	inFlight atomic.Bool
}

// NewTradeGate returns an open gate.
func NewTradeGate() *TradeGate {
	return &TradeGate{}
}

// TryAcquire attempts to close the gate. It returns true when the caller now
// holds it, false when a trade is already in flight.
func (g *TradeGate) TryAcquire() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

// Release reopens the gate. Called exactly once per successful TryAcquire,
// after the completion poll confirms no attributable open orders remain or
// submission failed outright.
func (g *TradeGate) Release() {
	g.inFlight.Store(false)
}

// Held reports whether a trade is currently in flight.
func (g *TradeGate) Held() bool {
	return g.inFlight.Load()
}
