package api

import "time"

type Config struct {
	MaxInFlight    int           `env:"API_MAX_IN_FLIGHT" envDefault:"64"`
	Backlog        int           `env:"API_BACKLOG" envDefault:"256"`
	BacklogTimeout time.Duration `env:"API_BACKLOG_TIMEOUT" envDefault:"30s"`
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"60s"`
	MaxBodyBytes   int64         `env:"API_MAX_BODY_BYTES" envDefault:"5242880"`
	// TrustProxy honours X-Forwarded-For and X-Real-IP when resolving client IPs.
	TrustProxy  bool   `env:"TRUST_PROXY" envDefault:"false"`
	AllowOrigin string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
}

// Options converts cfg into router options. Zero values keep the defaults.
func (c Config) Options() []Option {
	opts := []Option{WithTrustProxy(c.TrustProxy)}
	if c.MaxInFlight > 0 {
		opts = append(opts, WithMaxInFlight(c.MaxInFlight, c.Backlog, c.BacklogTimeout))
	}
	if c.RequestTimeout > 0 {
		opts = append(opts, WithRequestTimeout(c.RequestTimeout))
	}
	if c.MaxBodyBytes > 0 {
		opts = append(opts, WithMaxBodyBytes(c.MaxBodyBytes))
	}
	if c.AllowOrigin != "" {
		opts = append(opts, WithAllowOrigin(c.AllowOrigin))
	}
	return opts
}
