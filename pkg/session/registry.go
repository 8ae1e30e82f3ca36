package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sheetpool/pkg/logger"
)

// createAttempts bounds retries on token collisions.
const createAttempts = 3

// Registry issues and resolves session tokens.
type Registry struct {
	store       Store
	ttl         time.Duration
	tokenLength int
	log         *slog.Logger
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL makes sessions expire d after login. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(r *Registry) { r.ttl = d }
}

func WithTokenLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.tokenLength = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry returns a Registry backed by store.
func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:       store,
		tokenLength: DefaultTokenLength,
		log:         logger.Discard(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("session"))
	return r
}

// NewFromConfig builds the store named in cfg and a Registry on top of it.
// client is only used by the redis store.
func NewFromConfig(cfg Config, client redis.UniversalClient, opts ...Option) (*Registry, error) {
	var store Store
	switch cfg.Store {
	case "", StoreMemory:
		store = NewMemoryStore()
	case StoreRedis:
		if client == nil {
			return nil, errors.Join(ErrUnknownStore, errors.New("redis store needs a client"))
		}
		store = NewRedisStore(client, cfg.KeyPrefix)
	default:
		return nil, ErrUnknownStore
	}
	base := []Option{WithTTL(cfg.TTL), WithTokenLength(cfg.TokenLength)}
	return NewRegistry(store, append(base, opts...)...), nil
}

// Login issues a new token for identity. Earlier tokens stay valid.
func (r *Registry) Login(ctx context.Context, identity string) (string, error) {
	if identity == "" {
		return "", ErrEmptyIdentity
	}
	rec := Record{Identity: identity, CreatedAt: r.now().UTC()}

	for range createAttempts {
		token, err := GenerateToken(r.tokenLength)
		if err != nil {
			return "", err
		}
		err = r.store.Create(ctx, token, rec, r.ttl)
		if errors.Is(err, ErrTokenExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		r.log.DebugContext(ctx, "session created", logger.Identity(identity), logger.Session(token))
		return token, nil
	}
	return "", errors.Join(ErrTokenGeneration, ErrTokenExists)
}

// Logout removes token. Unknown and empty tokens are ignored.
func (r *Registry) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := r.store.Delete(ctx, token); err != nil {
		return err
	}
	r.log.DebugContext(ctx, "session removed", logger.Session(token))
	return nil
}

// Verify returns the identity of token or ErrSessionNotFound.
func (r *Registry) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	rec, err := r.store.Get(ctx, token)
	if err != nil {
		return "", err
	}
	return rec.Identity, nil
}
