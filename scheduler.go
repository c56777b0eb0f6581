package roleseer

import (
	"context"
	"time"
)

// Scheduler invokes a callback repeatedly at a fixed interval. It is the
// push-based alternative to the on-access staleness check; see WithScheduler.
// Implementations decide on what goroutine the callback runs and when the
// cadence stops.
type Scheduler interface {
	Schedule(fn func(), every time.Duration)
}

// TickerScheduler runs each scheduled callback on its own background
// goroutine until Stop is called or the parent context is canceled.
type TickerScheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTickerScheduler creates a TickerScheduler whose callbacks stop when ctx
// is canceled.
func NewTickerScheduler(ctx context.Context) *TickerScheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &TickerScheduler{ctx: ctx, cancel: cancel}
}

func (t *TickerScheduler) Schedule(fn func(), every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-t.ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels all scheduled callbacks. It should be called when the
// scheduler is no longer needed to prevent goroutine leaks.
func (t *TickerScheduler) Stop() {
	t.cancel()
}
