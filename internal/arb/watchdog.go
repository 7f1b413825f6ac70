package arb

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Watchdog declares the feed dead when no heartbeat or tick arrives within
// the timeout window and closes the transport. It holds no market-data
// semantics; it is a pure liveness check running on its own clock, so it
// fires even if a tick-processing cycle is mid-flight.
type Watchdog struct {
	timeout time.Duration
	closeFn func() error
	logger  *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
	fired bool
}

// NewWatchdog creates a watchdog that invokes closeFn when the deadline
// expires. The deadline only starts counting on Start.
func NewWatchdog(timeout time.Duration, closeFn func() error, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		closeFn: closeFn,
		logger:  logger.With(slog.String("component", "watchdog")),
	}
}

// Start arms the deadline and keeps it armed until ctx is done. The transport
// is closed at most once no matter how often the deadline would re-expire.
func (w *Watchdog) Start(ctx context.Context) {
	w.mu.Lock()
	if w.timer == nil {
		w.timer = time.AfterFunc(w.timeout, w.expire)
	}
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	}()
}

// Reset pushes the deadline out by the full timeout window. Called on every
// heartbeat and tick.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil || w.fired {
		return
	}
	w.timer.Stop()
	w.timer.Reset(w.timeout)
}

// expire runs on the timer goroutine when the deadline passes.
func (w *Watchdog) expire() {
	w.mu.Lock()
	if w.fired {
		w.mu.Unlock()
		return
	}
	w.fired = true
	w.mu.Unlock()

	w.logger.Error("connection to exchange lost, closing feed",
		slog.Duration("timeout", w.timeout),
	)
	if err := w.closeFn(); err != nil {
		w.logger.Warn("feed close failed", slog.String("error", err.Error()))
	}
}
