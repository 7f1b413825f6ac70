package domain

// Side is the exchange-native order side. BTC Markets expresses buys as "Bid"
// and sells as "Ask".
type Side string

const (
	SideBid Side = "Bid" // buy the base asset
	SideAsk Side = "Ask" // sell the base asset
)

// ArbitrageLeg is one of the three trades composing a triangular arbitrage
// order. Amount is the quantity of the asset being transacted on that market.
type ArbitrageLeg struct {
	MarketID string
	Side     Side
	Price    float64
	Amount   float64
}

// ArbitrageOrder is an ordered triple of legs closing a triangular loop:
// leg 1 converts the starting asset, leg 2 the intermediate asset, and leg 3
// converts back to the starting asset. Leg n's post-fee output quantity is
// leg n+1's input quantity.
type ArbitrageOrder struct {
	Legs [3]ArbitrageLeg
}

// ArbCase identifies one of the four directional routes through the triangle.
type ArbCase int

const (
	// CaseForwardFirst buys A with fiat, sells A for B, sells B for fiat.
	CaseForwardFirst ArbCase = iota + 1
	// CaseReverseFirst is the maker-priced reverse of CaseForwardFirst.
	CaseReverseFirst
	// CaseForwardSecond buys B with fiat, buys A with B, sells A for fiat.
	CaseForwardSecond
	// CaseReverseSecond is the maker-priced reverse of CaseForwardSecond.
	CaseReverseSecond
)

// String returns a short label for logging.
func (c ArbCase) String() string {
	switch c {
	case CaseForwardFirst:
		return "forward_first"
	case CaseReverseFirst:
		return "reverse_first"
	case CaseForwardSecond:
		return "forward_second"
	case CaseReverseSecond:
		return "reverse_second"
	default:
		return "unknown"
	}
}

// Opportunity pairs a directional case with the order that would realize it
// and the estimated post-fee turnover in fiat. Actionable means turnover is
// strictly positive.
type Opportunity struct {
	Case     ArbCase
	Order    ArbitrageOrder
	Turnover float64
}

// Actionable reports whether the opportunity is worth executing.
func (o Opportunity) Actionable() bool {
	return o.Turnover > 0
}
