package domain

import "sync"

// Fees is an immutable snapshot of the three fee tiers used by the evaluator.
//
// Trading applies to every fiat-denominated leg. Taker applies when the
// crypto-crypto leg fills against a quoted price; Maker applies when it fills
// at a self-stated resting price and may be negative (a rebate).
type Fees struct {
	Trading float64
	Taker   float64
	Maker   float64
}

// FeeSchedule holds the current fee tiers. The trading fee is refreshed
// out-of-band from the exchange while the evaluator reads snapshots on every
// tick, so access is guarded.
type FeeSchedule struct {
	mu   sync.RWMutex
	fees Fees
}

// NewFeeSchedule creates a schedule with the given initial tiers.
func NewFeeSchedule(trading, taker, maker float64) *FeeSchedule {
	return &FeeSchedule{fees: Fees{Trading: trading, Taker: taker, Maker: maker}}
}

// Snapshot returns the current fee tiers.
func (s *FeeSchedule) Snapshot() Fees {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fees
}

// SetTradingFee replaces the trading fee tier.
func (s *FeeSchedule) SetTradingFee(fee float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fees.Trading = fee
}
