package btcmarkets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hezh08/triangular-arbitrage/internal/crypto"
	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

func TestGetTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/markets/tickers" {
			t.Errorf("path=%q", r.URL.Path)
		}
		ids := r.URL.Query()["marketId"]
		if len(ids) != 2 || ids[0] != "XRP-AUD" || ids[1] != "BTC-AUD" {
			t.Errorf("marketId query=%v", ids)
		}
		io.WriteString(w, `[
			{"marketId":"XRP-AUD","bestBid":"0.49","bestAsk":"0.50","lastPrice":"0.495","timestamp":"2024-01-02T03:04:05Z"},
			{"marketId":"BTC-AUD","bestBid":"60000","bestAsk":"60100","lastPrice":"60050","timestamp":"2024-01-02T03:04:05Z"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	quotes, err := c.GetTickers(context.Background(), []string{"XRP-AUD", "BTC-AUD"})
	if err != nil {
		t.Fatalf("GetTickers: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("len(quotes)=%d want 2", len(quotes))
	}
	if quotes[0].MarketID != "XRP-AUD" || quotes[0].BestBid != 0.49 || quotes[0].BestAsk != 0.5 {
		t.Fatalf("quote=%+v", quotes[0])
	}
	if quotes[1].BestBid != 60000 {
		t.Fatalf("quote=%+v", quotes[1])
	}
}

func TestGetTakerFee(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/accounts/me/trading-fees" {
			t.Errorf("path=%q", r.URL.Path)
		}
		io.WriteString(w, `{"volume30Day":"12.5","feeByMarkets":[
			{"marketId":"XRP-AUD","makerFeeRate":"-0.0005","takerFeeRate":"0.0085"},
			{"marketId":"BTC-AUD","makerFeeRate":"-0.0005","takerFeeRate":"0.0075"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	fee, err := c.GetTakerFee(context.Background())
	if err != nil {
		t.Fatalf("GetTakerFee: %v", err)
	}
	if fee != 0.0085 {
		t.Fatalf("fee=%v want 0.0085", fee)
	}
}

func TestGetTakerFee_EmptyTiers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"volume30Day":"0","feeByMarkets":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	_, err := c.GetTakerFee(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	var gotBody APINewOrder
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/orders" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"orderId":"7524","marketId":"XRP-AUD","side":"Bid","type":"Limit","status":"Accepted","clientOrderId":"co-1"}`)
	}))
	defer srv.Close()

	auth := &crypto.HMACAuth{Key: "test-key", Secret: "aXQncyBhIHNlY3JldA=="}
	c := NewClient(srv.URL, auth, nil)

	placed, err := c.PlaceOrder(context.Background(), domain.NewOrder{
		MarketID:      "XRP-AUD",
		Side:          domain.SideBid,
		Type:          "Limit",
		Price:         0.5,
		Amount:        396.62865641,
		ClientOrderID: "co-1",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if placed.OrderID != "7524" || placed.Status != "Accepted" || placed.ClientOrderID != "co-1" {
		t.Fatalf("placed=%+v", placed)
	}

	if gotBody.Side != "Bid" || gotBody.Type != "Limit" {
		t.Fatalf("body=%+v", gotBody)
	}
	if gotBody.Price != "0.5" {
		t.Fatalf("price=%q want 0.5", gotBody.Price)
	}
	if gotBody.Amount != "396.62865641" {
		t.Fatalf("amount=%q want 8 decimal places", gotBody.Amount)
	}

	if gotHeaders.Get("BM-AUTH-APIKEY") != "test-key" {
		t.Fatalf("BM-AUTH-APIKEY=%q", gotHeaders.Get("BM-AUTH-APIKEY"))
	}
	if gotHeaders.Get("BM-AUTH-TIMESTAMP") == "" || gotHeaders.Get("BM-AUTH-SIGNATURE") == "" {
		t.Fatal("auth headers missing")
	}
	if gotHeaders.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type=%q", gotHeaders.Get("Content-Type"))
	}
}

func TestGetOpenOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/orders" {
			t.Errorf("path=%q", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Errorf("status=%q want open", got)
		}
		io.WriteString(w, `[
			{"orderId":"7524","marketId":"XRP-AUD","side":"Bid","type":"Limit","price":"0.5","amount":"400","openAmount":"120","status":"Accepted","creationTime":"2024-01-02T03:04:05Z"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	open, err := c.GetOpenOrders(context.Background())
	if err != nil {
		t.Fatalf("GetOpenOrders: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("len(open)=%d want 1", len(open))
	}
	o := open[0]
	if o.OrderID != "7524" || o.Side != domain.SideBid || o.Price != 0.5 || o.OpenAmount != 120 {
		t.Fatalf("open=%+v", o)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrInvalidOrder},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, `{"code":"SomeError","message":"it went wrong"}`)
		}))

		c := NewClient(srv.URL, nil, nil)
		_, err := c.GetOpenOrders(context.Background())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err=%v want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

type countingLimiter struct {
	waits int
	err   error
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (l *countingLimiter) Wait(ctx context.Context, key string) error {
	l.waits++
	return l.err
}

func TestClient_ConsultsRateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	limiter := &countingLimiter{}
	c := NewClient(srv.URL, nil, limiter)

	if _, err := c.GetOpenOrders(context.Background()); err != nil {
		t.Fatalf("GetOpenOrders: %v", err)
	}
	if limiter.waits != 1 {
		t.Fatalf("limiter waits=%d want 1", limiter.waits)
	}

	limiter.err = domain.ErrRateLimited
	_, err := c.GetOpenOrders(context.Background())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err=%v want ErrRateLimited", err)
	}
}
