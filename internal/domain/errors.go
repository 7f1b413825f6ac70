package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidOrder  = errors.New("invalid order parameters")
	ErrTradeInFlight = errors.New("trade already in flight")
	ErrBookNotReady  = errors.New("price book not ready")
	ErrWSDisconnect  = errors.New("websocket disconnected")
	ErrFeedFatal     = errors.New("fatal feed message")
	ErrPollDeadline  = errors.New("completion poll deadline exceeded")
)
