package api

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/sheetpool/pkg/httpserver"
)

// Option configures the router.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	registerer     prometheus.Registerer
	gatherer       prometheus.Gatherer
	checks         []httpserver.Check
	trustProxy     bool
	maxInFlight    int
	backlog        int
	backlogTimeout time.Duration
	requestTimeout time.Duration
	maxBodyBytes   int64
	allowOrigin    string
}

func defaultOptions() *options {
	return &options{
		maxInFlight:    64,
		backlog:        256,
		backlogTimeout: 30 * time.Second,
		requestTimeout: 60 * time.Second,
		maxBodyBytes:   5 << 20,
		allowOrigin:    "*",
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers the HTTP metrics on r and serves g on /metrics.
// Without it /metrics is not mounted.
func WithMetrics(r prometheus.Registerer, g prometheus.Gatherer) Option {
	return func(o *options) {
		o.registerer = r
		o.gatherer = g
	}
}

// WithReadiness adds checks to /ready.
func WithReadiness(checks ...httpserver.Check) Option {
	return func(o *options) { o.checks = append(o.checks, checks...) }
}

func WithTrustProxy(trust bool) Option {
	return func(o *options) { o.trustProxy = trust }
}

// WithMaxInFlight bounds concurrently served requests. Up to backlog requests
// wait at most backlogTimeout for a free spot.
func WithMaxInFlight(limit, backlog int, backlogTimeout time.Duration) Option {
	if limit <= 0 {
		panic("WithMaxInFlight: limit must be > 0")
	}
	return func(o *options) {
		o.maxInFlight = limit
		o.backlog = max(backlog, 0)
		if backlogTimeout > 0 {
			o.backlogTimeout = backlogTimeout
		}
	}
}

// WithRequestTimeout attaches a deadline to every request context.
func WithRequestTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithRequestTimeout: duration must be > 0")
	}
	return func(o *options) { o.requestTimeout = d }
}

func WithMaxBodyBytes(n int64) Option {
	if n <= 0 {
		panic("WithMaxBodyBytes: limit must be > 0")
	}
	return func(o *options) { o.maxBodyBytes = n }
}

func WithAllowOrigin(origin string) Option {
	return func(o *options) { o.allowOrigin = origin }
}
