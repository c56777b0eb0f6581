package roleseer

import (
	"context"
	"time"
)

// DefaultReloadInterval bounds staleness of a LiveMap when no interval is
// given.
const DefaultReloadInterval = 60 * time.Second

type Option func(*options)

// WithReloadInterval returns an option to override the default reload
// interval of 60 secs. A snapshot older than the interval is considered
// stale.
func WithReloadInterval(d time.Duration) Option {
	return func(o *options) {
		o.reloadEvery = d
	}
}

// WithScheduler returns an option to drive reloads from the given scheduler
// at the reload interval instead of checking staleness on access. Reads then
// never trigger file I/O, but may observe data staler than one interval if
// the scheduler is delayed.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithContext returns an option to override the default background context
// used for the construction-time reload and scheduler-driven reloads.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

type options struct {
	reloadEvery time.Duration
	scheduler   Scheduler
	ctx         context.Context
}

func defaultOptions() *options {
	return &options{
		reloadEvery: DefaultReloadInterval,
		ctx:         context.Background(),
	}
}
