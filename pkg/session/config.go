package session

import "time"

// Store kinds accepted in Config.Store.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds session settings.
type Config struct {
	Store       string        `env:"SESSION_STORE" envDefault:"memory"`                  // memory or redis
	TTL         time.Duration `env:"SESSION_TTL" envDefault:"0"`                         // 0 keeps sessions until logout
	KeyPrefix   string        `env:"SESSION_KEY_PREFIX" envDefault:"sheetpool:session:"` // redis key prefix
	TokenLength int           `env:"SESSION_TOKEN_LENGTH" envDefault:"40"`
}

// DefaultConfig returns the defaults declared in the env tags.
func DefaultConfig() Config {
	return Config{
		Store:       StoreMemory,
		KeyPrefix:   "sheetpool:session:",
		TokenLength: DefaultTokenLength,
	}
}
