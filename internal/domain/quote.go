package domain

import "time"

// MarketQuote is the latest top-of-book for a single market. MarketID is the
// exchange identifier of form "ASSET-QUOTE", e.g. "XRP-AUD".
//
// BestBid is the price at which the market will buy the base asset (what a
// seller receives); BestAsk is the price at which the market will sell it
// (what a buyer pays).
type MarketQuote struct {
	MarketID  string
	BestBid   float64
	BestAsk   float64
	LastPrice float64
	Timestamp time.Time
}
