package slotpool

import "time"

// Config holds pool settings read from the environment.
type Config struct {
	Size         int           `env:"POOL_SIZE" envDefault:"1"`            // number of engine instances
	IdleTimeout  time.Duration `env:"POOL_IDLE_TIMEOUT" envDefault:"0"`    // release slots idle longer than this; 0 disables
	ReapInterval time.Duration `env:"POOL_REAP_INTERVAL" envDefault:"1m"` // how often Run checks idle and broken slots
}

// Options converts the non-zero settings into options.
func (c Config) Options() []Option {
	opts := make([]Option, 0, 2)
	if c.IdleTimeout > 0 {
		opts = append(opts, WithIdleTimeout(c.IdleTimeout))
	}
	if c.ReapInterval > 0 {
		opts = append(opts, WithReapInterval(c.ReapInterval))
	}
	return opts
}
