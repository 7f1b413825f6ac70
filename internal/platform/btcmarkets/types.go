package btcmarkets

import (
	"strconv"
	"time"

	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

// APITicker is one entry of the GET /v3/markets/tickers response. BTC Markets
// serializes all decimals as strings.
type APITicker struct {
	MarketID  string `json:"marketId"`
	BestBid   string `json:"bestBid"`
	BestAsk   string `json:"bestAsk"`
	LastPrice string `json:"lastPrice"`
	Volume24h string `json:"volume24h"`
	Timestamp string `json:"timestamp"`
}

// ToDomainQuote converts the API ticker to a domain quote.
func (t *APITicker) ToDomainQuote() domain.MarketQuote {
	ts, err := time.Parse(time.RFC3339, t.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	return domain.MarketQuote{
		MarketID:  t.MarketID,
		BestBid:   parseFloat(t.BestBid),
		BestAsk:   parseFloat(t.BestAsk),
		LastPrice: parseFloat(t.LastPrice),
		Timestamp: ts,
	}
}

// APITradingFees is the GET /v3/accounts/me/trading-fees response.
type APITradingFees struct {
	Volume30Day  string         `json:"volume30Day"`
	FeeByMarkets []APIMarketFee `json:"feeByMarkets"`
}

// APIMarketFee is one per-market fee tier entry.
type APIMarketFee struct {
	MarketID     string `json:"marketId"`
	MakerFeeRate string `json:"makerFeeRate"`
	TakerFeeRate string `json:"takerFeeRate"`
}

// APINewOrder is the POST /v3/orders request payload.
type APINewOrder struct {
	MarketID      string `json:"marketId"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Amount        string `json:"amount"`
	ClientOrderID string `json:"clientOrderId,omitempty"`
}

// APIOrder is an order as returned by the orders endpoints.
type APIOrder struct {
	OrderID       string `json:"orderId"`
	MarketID      string `json:"marketId"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Amount        string `json:"amount"`
	OpenAmount    string `json:"openAmount"`
	Status        string `json:"status"`
	CreationTime  string `json:"creationTime"`
	ClientOrderID string `json:"clientOrderId"`
}

// ToDomainPlaced converts the placement acknowledgement to its domain form.
func (o *APIOrder) ToDomainPlaced() domain.PlacedOrder {
	return domain.PlacedOrder{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		MarketID:      o.MarketID,
		Status:        o.Status,
	}
}

// ToDomainOpenOrder converts an open-orders entry to its domain form.
func (o *APIOrder) ToDomainOpenOrder() domain.OpenOrder {
	created, err := time.Parse(time.RFC3339, o.CreationTime)
	if err != nil {
		created = time.Time{}
	}
	return domain.OpenOrder{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		MarketID:      o.MarketID,
		Side:          domain.Side(o.Side),
		Price:         parseFloat(o.Price),
		Amount:        parseFloat(o.Amount),
		OpenAmount:    parseFloat(o.OpenAmount),
		CreatedAt:     created,
	}
}

// APIError is the error envelope returned on non-2xx responses.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// parseFloat parses an API decimal string, returning 0 for empty or
// malformed values.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// formatPrice renders a price for the API without trailing zeros.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// formatAmount renders a quantity to the 8 decimal places the exchange
// accepts.
func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', 8, 64)
}
