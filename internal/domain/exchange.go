package domain

import (
	"context"
	"time"
)

// NewOrder is an order placement request. ClientOrderID is caller-assigned
// and echoed back by the exchange, which lets executions be attributed to the
// session that placed them.
type NewOrder struct {
	MarketID      string
	Side          Side
	Type          string // always "Limit" for arbitrage legs
	Price         float64
	Amount        float64
	ClientOrderID string
}

// PlacedOrder is the exchange's acknowledgement of a placement.
type PlacedOrder struct {
	OrderID       string
	ClientOrderID string
	MarketID      string
	Status        string
}

// OpenOrder is one entry from the open-orders query.
type OpenOrder struct {
	OrderID       string
	ClientOrderID string
	MarketID      string
	Side          Side
	Price         float64
	Amount        float64
	OpenAmount    float64
	CreatedAt     time.Time
}

// Exchange is the REST collaborator the core consumes. Implementations carry
// valid credentials on every call; the core never constructs or inspects auth
// headers.
type Exchange interface {
	// GetTickers returns the current quote for each requested market. Used
	// once at startup to seed the PriceBook.
	GetTickers(ctx context.Context, marketIDs []string) ([]MarketQuote, error)

	// GetTakerFee returns the account's taker fee rate as a decimal fraction,
	// used to refresh the trading fee tier.
	GetTakerFee(ctx context.Context) (float64, error)

	// PlaceOrder submits a single limit order leg.
	PlaceOrder(ctx context.Context, order NewOrder) (PlacedOrder, error)

	// GetOpenOrders returns every order still open on the account.
	GetOpenOrders(ctx context.Context) ([]OpenOrder, error)
}

// FeedEventType discriminates inbound feed messages.
type FeedEventType string

const (
	FeedHeartbeat FeedEventType = "heartbeat"
	FeedTick      FeedEventType = "tick"
	FeedError     FeedEventType = "error"
)

// FeedEvent is one typed message from the market-data transport. Tick is set
// for FeedTick events; Code and Message for FeedError events.
type FeedEvent struct {
	Type    FeedEventType
	Tick    MarketQuote
	Code    int
	Message string
}

// FeedTransport is the market-data collaborator. Subscribe must be called
// before events flow; Close tears the connection down and is idempotent.
type FeedTransport interface {
	Subscribe(ctx context.Context, marketIDs, channels []string) error
	Close() error
}
