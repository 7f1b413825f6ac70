// Package arb contains the core of the triangular arbitrage bot: the
// evaluator that prices the four directional routes through the triangle, the
// single-trade gate, the three-leg execution coordinator, the per-tick
// dispatcher, and the feed watchdog.
package arb

import (
	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

// AmountToReceiveOnBid returns the quantity of base asset received when
// spending totalCost of the quote asset at price, after the fee is charged on
// top of the spend.
func AmountToReceiveOnBid(totalCost, price, fee float64) float64 {
	return totalCost / (price * (1 + fee))
}

// AmountToReceiveOnAsk returns the quantity of quote asset received when
// selling volumeToSend of the base asset at price, after the fee is deducted
// from the proceeds.
func AmountToReceiveOnAsk(volumeToSend, price, fee float64) float64 {
	return volumeToSend * price * (1 - fee)
}

// Evaluator prices the four directional cases of a fixed three-market
// triangle against the current book and fee schedule. It is parameterized by
// the market identifiers so one evaluator serves any fiat/A/B triple.
//
// The triangle is marketFiatA (fiat vs first crypto, e.g. XRP-AUD), marketAB
// (crypto vs crypto, e.g. XRP-BTC) and marketBFiat (second crypto vs fiat,
// e.g. BTC-AUD). Two independent inequalities each select either a forward
// route filled at quoted prices (taker fee on the middle leg) or the reverse
// maker-priced route (maker fee on the middle leg), so every evaluation
// produces exactly two candidates.
type Evaluator struct {
	marketFiatA string
	marketAB    string
	marketBFiat string

	tradingAmount float64
	fees          *domain.FeeSchedule
}

// NewEvaluator creates an evaluator for the given triangle. tradingAmount is
// the fixed fiat notional committed at the start of every route.
func NewEvaluator(marketFiatA, marketAB, marketBFiat string, tradingAmount float64, fees *domain.FeeSchedule) *Evaluator {
	return &Evaluator{
		marketFiatA:   marketFiatA,
		marketAB:      marketAB,
		marketBFiat:   marketBFiat,
		tradingAmount: tradingAmount,
		fees:          fees,
	}
}

// Evaluate returns the actionable subset of the current candidates, in case
// order. The book must be ready; an unready book yields nil.
func (e *Evaluator) Evaluate(book *domain.PriceBook) []domain.Opportunity {
	candidates := e.Candidates(book)
	out := make([]domain.Opportunity, 0, len(candidates))
	for _, c := range candidates {
		if c.Actionable() {
			out = append(out, c)
		}
	}
	return out
}

// Candidates prices both selected routes, profitable or not, so callers can
// log the turnover of near misses. Evaluation mutates nothing: identical
// inputs produce identical results.
func (e *Evaluator) Candidates(book *domain.PriceBook) []domain.Opportunity {
	if !book.IsReady() {
		return nil
	}
	q1, ok1 := book.Quote(e.marketFiatA)
	q2, ok2 := book.Quote(e.marketAB)
	q3, ok3 := book.Quote(e.marketBFiat)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}

	// Malformed feed decimals parse to zero. A non-positive price cannot be
	// traded against and would settle the division legs to infinities, so the
	// triangle stays unpriced until a sane quote replaces it.
	for _, q := range [3]domain.MarketQuote{q1, q2, q3} {
		if q.BestBid <= 0 || q.BestAsk <= 0 {
			return nil
		}
	}

	fees := e.fees.Snapshot()
	candidates := make([]domain.Opportunity, 0, 2)

	// First inequality: buy A with fiat, sell A for B, sell B for fiat. When
	// it does not hold, the same loop is priced as resting maker orders in
	// the reverse listing order.
	if q1.BestAsk/q2.BestBid/q3.BestBid < 1 {
		candidates = append(candidates, e.route(
			domain.CaseForwardFirst,
			[3]leg{
				{e.marketFiatA, domain.SideBid, q1.BestAsk},
				{e.marketAB, domain.SideAsk, q2.BestBid},
				{e.marketBFiat, domain.SideAsk, q3.BestBid},
			},
			fees, fees.Taker, true, false,
		))
	} else {
		candidates = append(candidates, e.route(
			domain.CaseReverseFirst,
			[3]leg{
				{e.marketBFiat, domain.SideAsk, q3.BestBid},
				{e.marketAB, domain.SideAsk, q2.BestBid},
				{e.marketFiatA, domain.SideBid, q1.BestAsk},
			},
			fees, fees.Maker, false, false,
		))
	}

	// Second inequality: buy B with fiat, buy A with B, sell A for fiat.
	if q3.BestAsk*q2.BestAsk/q1.BestBid < 1 {
		candidates = append(candidates, e.route(
			domain.CaseForwardSecond,
			[3]leg{
				{e.marketBFiat, domain.SideBid, q3.BestAsk},
				{e.marketAB, domain.SideBid, q2.BestAsk},
				{e.marketFiatA, domain.SideAsk, q1.BestBid},
			},
			fees, fees.Taker, true, true,
		))
	} else {
		candidates = append(candidates, e.route(
			domain.CaseReverseSecond,
			[3]leg{
				{e.marketFiatA, domain.SideAsk, q1.BestBid},
				{e.marketAB, domain.SideBid, q2.BestAsk},
				{e.marketBFiat, domain.SideBid, q3.BestAsk},
			},
			fees, fees.Maker, false, true,
		))
	}

	return candidates
}

// leg is a route leg before its amount is known.
type leg struct {
	marketID string
	side     domain.Side
	price    float64
}

// route settles the three legs of one directional case and returns the priced
// opportunity.
//
// buyFirst: the first listed leg spends the fiat notional; otherwise the last
// listed leg does and the chain settles from that end. buyMiddle: the middle
// leg buys the intermediate asset (division by price) rather than selling it.
// midFee is the taker or maker fee for the middle leg; the two fiat-facing
// legs always pay the trading fee.
func (e *Evaluator) route(c domain.ArbCase, legs [3]leg, fees domain.Fees, midFee float64, buyFirst, buyMiddle bool) domain.Opportunity {
	entry := legs[0]
	exit := legs[2]
	if !buyFirst {
		entry, exit = exit, entry
	}

	cryptoFromFiat := AmountToReceiveOnBid(e.tradingAmount, entry.price, fees.Trading)
	var cryptoFromCrypto float64
	if buyMiddle {
		cryptoFromCrypto = AmountToReceiveOnBid(cryptoFromFiat, legs[1].price, midFee)
	} else {
		cryptoFromCrypto = AmountToReceiveOnAsk(cryptoFromFiat, legs[1].price, midFee)
	}
	fiatFromCrypto := AmountToReceiveOnAsk(cryptoFromCrypto, exit.price, fees.Trading)

	amounts := [3]float64{e.tradingAmount, cryptoFromFiat, cryptoFromCrypto}
	if !buyFirst {
		amounts = [3]float64{cryptoFromCrypto, cryptoFromFiat, e.tradingAmount}
	}

	var order domain.ArbitrageOrder
	for i, l := range legs {
		order.Legs[i] = domain.ArbitrageLeg{
			MarketID: l.marketID,
			Side:     l.side,
			Price:    l.price,
			Amount:   amounts[i],
		}
	}

	return domain.Opportunity{
		Case:     c,
		Order:    order,
		Turnover: fiatFromCrypto - e.tradingAmount,
	}
}
