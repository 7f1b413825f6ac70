package domain

import "testing"

var triangle = []string{"XRP-AUD", "XRP-BTC", "BTC-AUD"}

func TestPriceBook_ReadyAfterAllMarketsQuoted(t *testing.T) {
	book := NewPriceBook(triangle)

	if book.IsReady() {
		t.Fatal("empty book reported ready")
	}

	book.Update(MarketQuote{MarketID: "XRP-AUD", BestBid: 1.0, BestAsk: 1.1})
	book.Update(MarketQuote{MarketID: "XRP-BTC", BestBid: 0.00002, BestAsk: 0.000021})
	if book.IsReady() {
		t.Fatal("book ready with only two markets quoted")
	}

	book.Update(MarketQuote{MarketID: "BTC-AUD", BestBid: 60000, BestAsk: 60100})
	if !book.IsReady() {
		t.Fatal("book not ready after all three markets quoted")
	}
}

func TestPriceBook_ReadinessIsMonotonic(t *testing.T) {
	book := NewPriceBook(triangle)
	for _, id := range triangle {
		book.Update(MarketQuote{MarketID: id, BestBid: 1, BestAsk: 2})
	}
	if !book.IsReady() {
		t.Fatal("book not ready")
	}

	// Later updates, including degenerate ones, must never revert readiness.
	book.Update(MarketQuote{MarketID: "XRP-AUD"})
	book.Update(MarketQuote{MarketID: "ETH-AUD", BestBid: 5})
	if !book.IsReady() {
		t.Fatal("readiness reverted after subsequent updates")
	}
}

func TestPriceBook_IgnoresUnsubscribedMarkets(t *testing.T) {
	book := NewPriceBook(triangle)
	book.Update(MarketQuote{MarketID: "ETH-AUD", BestBid: 5000, BestAsk: 5010})

	if _, ok := book.Quote("ETH-AUD"); ok {
		t.Fatal("unsubscribed market stored")
	}
	if len(book.Snapshot()) != 0 {
		t.Fatalf("snapshot not empty: %v", book.Snapshot())
	}
}

func TestPriceBook_UpdateOverwrites(t *testing.T) {
	book := NewPriceBook(triangle)
	book.Update(MarketQuote{MarketID: "BTC-AUD", BestBid: 60000, BestAsk: 60100})
	book.Update(MarketQuote{MarketID: "BTC-AUD", BestBid: 59900, BestAsk: 60050})

	q, ok := book.Quote("BTC-AUD")
	if !ok {
		t.Fatal("quote missing")
	}
	if q.BestBid != 59900 || q.BestAsk != 60050 {
		t.Fatalf("quote not overwritten: %+v", q)
	}
}
