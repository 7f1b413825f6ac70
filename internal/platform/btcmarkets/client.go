// Package btcmarkets implements the BTC Markets v3 REST and WebSocket
// clients consumed by the arbitrage core.
package btcmarkets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hezh08/triangular-arbitrage/internal/crypto"
	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

// Client is the REST client for the BTC Markets v3 API. It implements
// domain.Exchange: quote snapshots, fee lookup, order placement, and the
// open-orders query.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.HMACAuth
	limiter    domain.RateLimiter // optional; nil disables throttling
}

// NewClient creates a REST client. baseURL is the API root, e.g.
// "https://api.btcmarkets.net". auth may be nil for public endpoints only.
// limiter, when non-nil, is consulted before every request so polling stays
// inside the exchange's rate limits.
func NewClient(baseURL string, auth *crypto.HMACAuth, limiter domain.RateLimiter) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		auth:    auth,
		limiter: limiter,
	}
}

// GetTickers returns the current quote for each requested market, used once
// at startup to seed the price book before the feed delivers its first ticks.
func (c *Client) GetTickers(ctx context.Context, marketIDs []string) ([]domain.MarketQuote, error) {
	query := url.Values{}
	for _, id := range marketIDs {
		query.Add("marketId", id)
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, "/v3/markets/tickers", query, nil)
	if err != nil {
		return nil, fmt.Errorf("btcmarkets: get tickers: %w", err)
	}

	var tickers []APITicker
	if err := json.Unmarshal(respBody, &tickers); err != nil {
		return nil, fmt.Errorf("btcmarkets: decode tickers: %w", err)
	}

	quotes := make([]domain.MarketQuote, 0, len(tickers))
	for i := range tickers {
		quotes = append(quotes, tickers[i].ToDomainQuote())
	}
	return quotes, nil
}

// GetTakerFee returns the account's taker fee rate for the first fee-tiered
// market as a decimal fraction.
func (c *Client) GetTakerFee(ctx context.Context) (float64, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/v3/accounts/me/trading-fees", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("btcmarkets: get trading fees: %w", err)
	}

	var fees APITradingFees
	if err := json.Unmarshal(respBody, &fees); err != nil {
		return 0, fmt.Errorf("btcmarkets: decode trading fees: %w", err)
	}
	if len(fees.FeeByMarkets) == 0 {
		return 0, fmt.Errorf("btcmarkets: get trading fees: %w", domain.ErrNotFound)
	}
	return parseFloat(fees.FeeByMarkets[0].TakerFeeRate), nil
}

// PlaceOrder submits a single limit order.
func (c *Client) PlaceOrder(ctx context.Context, order domain.NewOrder) (domain.PlacedOrder, error) {
	body := APINewOrder{
		MarketID:      order.MarketID,
		Side:          string(order.Side),
		Type:          order.Type,
		Price:         formatPrice(order.Price),
		Amount:        formatAmount(order.Amount),
		ClientOrderID: order.ClientOrderID,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v3/orders", nil, body)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("btcmarkets: place order %s %s: %w", order.Side, order.MarketID, err)
	}

	var placed APIOrder
	if err := json.Unmarshal(respBody, &placed); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("btcmarkets: decode order: %w", err)
	}
	return placed.ToDomainPlaced(), nil
}

// GetOpenOrders returns every order still open on the account.
func (c *Client) GetOpenOrders(ctx context.Context) ([]domain.OpenOrder, error) {
	query := url.Values{}
	query.Set("status", "open")

	respBody, err := c.doRequest(ctx, http.MethodGet, "/v3/orders", query, nil)
	if err != nil {
		return nil, fmt.Errorf("btcmarkets: get open orders: %w", err)
	}

	var orders []APIOrder
	if err := json.Unmarshal(respBody, &orders); err != nil {
		return nil, fmt.Errorf("btcmarkets: decode open orders: %w", err)
	}

	open := make([]domain.OpenOrder, 0, len(orders))
	for i := range orders {
		open = append(open, orders[i].ToDomainOpenOrder())
	}
	return open, nil
}

// doRequest performs one HTTP round trip. The signature covers the path
// without the query string, matching the exchange's signing scheme.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "btcmarkets:rest"); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var payload []byte
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = data
		reader = bytes.NewReader(data)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Charset", "UTF-8")
	req.Header.Set("Content-Type", "application/json")
	if c.auth != nil {
		for k, v := range c.auth.Headers(method, path, string(payload)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			return nil, fmt.Errorf("%s %s: status %d: %s (%s): %w",
				method, path, resp.StatusCode, apiErr.Message, apiErr.Code, statusToErr(resp.StatusCode))
		}
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, statusToErr(resp.StatusCode))
	}

	return respBody, nil
}

// statusToErr maps HTTP status codes onto the domain sentinel errors.
func statusToErr(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusBadRequest:
		return domain.ErrInvalidOrder
	default:
		return fmt.Errorf("unexpected status")
	}
}

// Compile-time interface check.
var _ domain.Exchange = (*Client)(nil)
