package slotpool

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	registerer   prometheus.Registerer
	now          func() time.Time
	idleTimeout  time.Duration
	reapInterval time.Duration
}

func defaultOptions() *options {
	return &options{
		now:          time.Now,
		reapInterval: time.Minute,
	}
}

// WithLogger sets the logger. Without it the pool is silent.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the pool metrics on r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("WithClock: nil clock")
	}
	return func(o *options) { o.now = now }
}

// WithIdleTimeout makes Run release slots unused for longer than d.
func WithIdleTimeout(d time.Duration) Option {
	if d < 0 {
		panic("WithIdleTimeout: duration must be >= 0")
	}
	return func(o *options) { o.idleTimeout = d }
}

// WithReapInterval sets how often Run wakes up.
func WithReapInterval(d time.Duration) Option {
	if d <= 0 {
		panic("WithReapInterval: duration must be > 0")
	}
	return func(o *options) { o.reapInterval = d }
}
