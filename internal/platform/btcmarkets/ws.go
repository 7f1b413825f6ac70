package btcmarkets

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// EventHandler receives every typed feed event in arrival order.
type EventHandler func(domain.FeedEvent)

// WSClient is a WebSocket client for the BTC Markets v2 market-data feed. It
// manages the connection lifecycle and the subscription handshake, parses the
// wire messages, and dispatches typed events to a single handler.
//
// The client does not reconnect: when the connection drops or the server
// sends an error-typed message the session is over, which is surfaced as a
// FeedError event followed by read-loop exit. Liveness is the watchdog's job.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.Mutex
	closed bool

	handler   EventHandler
	handlerMu sync.RWMutex

	// done is closed when the client is shut down.
	done chan struct{}
}

// NewWSClient creates a client for the given WebSocket URL, e.g.
// "wss://socket.btcmarkets.net/v2".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// OnEvent registers the handler invoked for every inbound event. Must be
// called before Connect.
func (w *WSClient) OnEvent(handler EventHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handler = handler
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("btcmarkets/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("btcmarkets/ws: connect: %w", err)
	}

	w.conn = conn

	// Set up pong handler for keep-alive.
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop()

	return nil
}

// subscribeCommand is the subscription handshake payload.
type subscribeCommand struct {
	MarketIDs   []string `json:"marketIds"`
	Channels    []string `json:"channels"`
	MessageType string   `json:"messageType"`
}

// Subscribe sends the subscription handshake for the given markets and
// channels (normally "tick" and "heartbeat").
func (w *WSClient) Subscribe(ctx context.Context, marketIDs, channels []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("btcmarkets/ws: not connected")
	}

	cmd := subscribeCommand{
		MarketIDs:   marketIDs,
		Channels:    channels,
		MessageType: "subscribe",
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("btcmarkets/ws: marshal subscribe: %w", err)
	}

	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("btcmarkets/ws: subscribe: %w", err)
	}
	return nil
}

// Close shuts down the WebSocket connection and stops the loops. It is safe
// to call multiple times.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// wsMessage is the superset of fields across the feed's message types.
type wsMessage struct {
	MessageType string `json:"messageType"`
	MarketID    string `json:"marketId"`
	BestBid     string `json:"bestBid"`
	BestAsk     string `json:"bestAsk"`
	LastPrice   string `json:"lastPrice"`
	Timestamp   string `json:"timestamp"`
	Code        int    `json:"code"`
	Message     string `json:"message"`
}

// readLoop reads messages until the connection drops or the client is
// closed, dispatching each as a typed event.
func (w *WSClient) readLoop() {
	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.Lock()
		conn := w.conn
		w.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				// Expected: Close was called.
			default:
				w.dispatch(domain.FeedEvent{
					Type:    domain.FeedError,
					Message: err.Error(),
				})
			}
			return
		}

		w.handleMessage(raw)
	}
}

// pingLoop sends periodic ping messages to keep the WebSocket alive.
func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			conn := w.conn
			w.mu.Unlock()
			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses one raw feed message into a typed event.
func (w *WSClient) handleMessage(raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return // silently drop unparseable messages
	}

	switch msg.MessageType {
	case "heartbeat":
		w.dispatch(domain.FeedEvent{Type: domain.FeedHeartbeat})

	case "tick":
		ts, err := time.Parse(time.RFC3339, msg.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}
		w.dispatch(domain.FeedEvent{
			Type: domain.FeedTick,
			Tick: domain.MarketQuote{
				MarketID:  msg.MarketID,
				BestBid:   parseFloat(msg.BestBid),
				BestAsk:   parseFloat(msg.BestAsk),
				LastPrice: parseFloat(msg.LastPrice),
				Timestamp: ts,
			},
		})

	default:
		// Anything else is the error envelope.
		w.dispatch(domain.FeedEvent{
			Type:    domain.FeedError,
			Code:    msg.Code,
			Message: msg.Message,
		})
	}
}

// dispatch delivers one event to the registered handler.
func (w *WSClient) dispatch(ev domain.FeedEvent) {
	w.handlerMu.RLock()
	handler := w.handler
	w.handlerMu.RUnlock()
	if handler != nil {
		handler(ev)
	}
}

// Compile-time interface check.
var _ domain.FeedTransport = (*WSClient)(nil)
