package domain

import "sync"

// PriceBook holds the latest quote for a fixed set of markets. It is created
// empty, mutated in place on every tick, and becomes ready the instant all
// subscribed markets have received at least one quote. Readiness never
// reverts.
type PriceBook struct {
	mu     sync.RWMutex
	quotes map[string]MarketQuote
	seen   map[string]bool
	ready  bool
}

// NewPriceBook creates an empty book subscribed to the given market IDs.
func NewPriceBook(marketIDs []string) *PriceBook {
	seen := make(map[string]bool, len(marketIDs))
	for _, id := range marketIDs {
		seen[id] = false
	}
	return &PriceBook{
		quotes: make(map[string]MarketQuote, len(marketIDs)),
		seen:   seen,
	}
}

// Update replaces the stored quote for the quote's market. Quotes for markets
// the book is not subscribed to are ignored; the feed may carry extras.
func (b *PriceBook) Update(q MarketQuote) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, subscribed := b.seen[q.MarketID]; !subscribed {
		return
	}
	b.quotes[q.MarketID] = q
	if !b.ready {
		b.seen[q.MarketID] = true
		b.ready = b.allSeen()
	}
}

// allSeen reports whether every subscribed market has at least one quote.
// Caller must hold b.mu.
func (b *PriceBook) allSeen() bool {
	for _, ok := range b.seen {
		if !ok {
			return false
		}
	}
	return true
}

// IsReady reports whether every subscribed market has received a quote.
func (b *PriceBook) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

// Quote returns the stored quote for a market and whether one has been
// recorded.
func (b *PriceBook) Quote(marketID string) (MarketQuote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[marketID]
	return q, ok
}

// Snapshot returns a copy of all stored quotes keyed by market ID.
func (b *PriceBook) Snapshot() map[string]MarketQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]MarketQuote, len(b.quotes))
	for id, q := range b.quotes {
		out[id] = q
	}
	return out
}
