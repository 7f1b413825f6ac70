package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hezh08/triangular-arbitrage/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each market's
// latest quote is stored at key "quote:{marketID}" with fields "bid", "ask",
// "last" and "ts" (Unix nanosecond timestamp). Only the most recent quote is
// kept; every update overwrites the previous one.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(marketID string) string {
	return "quote:" + marketID
}

// SetQuote stores the latest quote for a market.
func (qc *QuoteCache) SetQuote(ctx context.Context, q domain.MarketQuote) error {
	fields := map[string]interface{}{
		"bid":  strconv.FormatFloat(q.BestBid, 'f', -1, 64),
		"ask":  strconv.FormatFloat(q.BestAsk, 'f', -1, 64),
		"last": strconv.FormatFloat(q.LastPrice, 'f', -1, 64),
		"ts":   strconv.FormatInt(q.Timestamp.UnixNano(), 10),
	}
	if err := qc.rdb.HSet(ctx, quoteKey(q.MarketID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", q.MarketID, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for a market. It returns
// domain.ErrNotFound when no quote has been stored.
func (qc *QuoteCache) GetQuote(ctx context.Context, marketID string) (domain.MarketQuote, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(marketID)).Result()
	if err != nil {
		return domain.MarketQuote{}, fmt.Errorf("redis: get quote %s: %w", marketID, err)
	}
	if len(vals) == 0 {
		return domain.MarketQuote{}, domain.ErrNotFound
	}

	q := domain.MarketQuote{MarketID: marketID}
	if v, ok := vals["bid"]; ok {
		q.BestBid, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := vals["ask"]; ok {
		q.BestAsk, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := vals["last"]; ok {
		q.LastPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := vals["ts"]; ok {
		if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.Timestamp = time.Unix(0, ns)
		}
	}
	return q, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
