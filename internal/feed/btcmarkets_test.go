package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newFeedServer runs handle on every accepted WebSocket connection and
// returns the ws:// URL to dial.
func newFeedServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// drain consumes inbound frames (the subscribe handshake, close frames) so
// the server can keep writing.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestRunner_WatchdogTimeoutEndsSession(t *testing.T) {
	// The server accepts the subscription and then goes silent: no
	// heartbeats, no ticks. The watchdog must close the feed AND end Run.
	url := newFeedServer(t, func(conn *websocket.Conn) {
		drain(conn)
	})

	r := NewRunner(url, []string{"XRP-AUD"}, 100*time.Millisecond,
		func(ctx context.Context, q domain.MarketQuote) {}, discard)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrFeedFatal) {
			t.Fatalf("err=%v want ErrFeedFatal", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("session still running after watchdog timeout")
	}
}

func TestRunner_HeartbeatsKeepSessionAlive(t *testing.T) {
	url := newFeedServer(t, func(conn *websocket.Conn) {
		go drain(conn)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"messageType":"heartbeat"}`)); err != nil {
				return
			}
		}
	})

	r := NewRunner(url, []string{"XRP-AUD"}, 200*time.Millisecond,
		func(ctx context.Context, q domain.MarketQuote) {}, discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Several multiples of the timeout pass with only heartbeats flowing.
	time.Sleep(600 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("session did not end on cancellation")
	}
}

func TestRunner_TicksReachHandler(t *testing.T) {
	url := newFeedServer(t, func(conn *websocket.Conn) {
		err := conn.WriteMessage(websocket.TextMessage, []byte(
			`{"messageType":"tick","marketId":"XRP-AUD","bestBid":"0.49","bestAsk":"0.50","lastPrice":"0.495","timestamp":"2024-01-02T03:04:05Z"}`))
		if err != nil {
			return
		}
		drain(conn) // hold the connection until the client closes
	})

	quotes := make(chan domain.MarketQuote, 1)
	r := NewRunner(url, []string{"XRP-AUD"}, time.Second,
		func(ctx context.Context, q domain.MarketQuote) { quotes <- q }, discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	select {
	case q := <-quotes:
		if q.MarketID != "XRP-AUD" || q.BestBid != 0.49 || q.BestAsk != 0.5 {
			t.Fatalf("quote=%+v", q)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tick never reached the handler")
	}
}

func TestRunner_ServerErrorEndsSession(t *testing.T) {
	url := newFeedServer(t, func(conn *websocket.Conn) {
		err := conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"messageType":"error","code":3,"message":"invalid marketIds"}`))
		if err != nil {
			return
		}
		drain(conn) // hold the connection until the client closes
	})

	r := NewRunner(url, []string{"NOPE"}, time.Minute,
		func(ctx context.Context, q domain.MarketQuote) {}, discard)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrFeedFatal) {
			t.Fatalf("err=%v want ErrFeedFatal", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("session still running after server error message")
	}
}
