package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepEvery is the number of Allow calls between idle sweeps.
const sweepEvery = 512

// Result is the outcome of one Allow call.
type Result struct {
	Allowed bool
	// RetryAfter is how long until the next event would be allowed. Zero when Allowed.
	RetryAfter time.Duration
}

// Keyed applies one token bucket per key.
type Keyed struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	byKey map[string]*bucket
	calls uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Option func(*Keyed)

// WithIdleTTL sets how long a key may stay unused before it is evicted.
func WithIdleTTL(d time.Duration) Option {
	return func(k *Keyed) {
		if d > 0 {
			k.idleTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(k *Keyed) {
		if now != nil {
			k.now = now
		}
	}
}

// New returns a limiter allowing rps events per second per key with bursts of burst.
func New(rps float64, burst int, opts ...Option) (*Keyed, error) {
	if rps <= 0 || burst <= 0 {
		return nil, ErrInvalidLimit
	}
	k := &Keyed{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		byKey:   make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Allow consumes one token for key. Empty keys are never limited.
func (k *Keyed) Allow(key string) Result {
	if k == nil {
		return Result{Allowed: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{Allowed: true}
	}
	now := k.now()

	k.mu.Lock()
	defer k.mu.Unlock()

	b, ok := k.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.byKey[key] = b
	}
	b.lastSeen = now

	k.calls++
	if k.calls%sweepEvery == 0 {
		k.sweep(now)
	}

	if b.limiter.AllowN(now, 1) {
		return Result{Allowed: true}
	}
	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return Result{RetryAfter: delay}
}

// Reset forgets key, restoring its full burst.
func (k *Keyed) Reset(key string) {
	if k == nil {
		return
	}
	k.mu.Lock()
	delete(k.byKey, strings.TrimSpace(key))
	k.mu.Unlock()
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.byKey)
}

func (k *Keyed) sweep(now time.Time) {
	cutoff := now.Add(-k.idleTTL)
	for key, b := range k.byKey {
		if b.lastSeen.Before(cutoff) {
			delete(k.byKey, key)
		}
	}
}
