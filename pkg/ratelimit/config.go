package ratelimit

import "time"

// Config holds login throttling settings. Rate 0 disables throttling.
type Config struct {
	Rate    float64       `env:"LOGIN_RATE" envDefault:"1"`  // tokens per second
	Burst   int           `env:"LOGIN_BURST" envDefault:"5"` // bucket size
	IdleTTL time.Duration `env:"LOGIN_LIMIT_IDLE_TTL" envDefault:"10m"`
}

// NewFromConfig returns nil when cfg.Rate is 0.
func NewFromConfig(cfg Config) (*Keyed, error) {
	if cfg.Rate == 0 {
		return nil, nil
	}
	return New(cfg.Rate, cfg.Burst, WithIdleTTL(cfg.IdleTTL))
}
