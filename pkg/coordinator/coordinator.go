package coordinator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
	"github.com/dmitrymomot/sheetpool/pkg/policy"
	"github.com/dmitrymomot/sheetpool/pkg/ratelimit"
	"github.com/dmitrymomot/sheetpool/pkg/session"
	"github.com/dmitrymomot/sheetpool/pkg/slotpool"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

// MaxSchemaBytes bounds a stored UI schema.
const MaxSchemaBytes = 256 << 10

// Pool is the slot pool as seen by the coordinator.
type Pool interface {
	Load(ctx context.Context, sessionID, identity, path string) (int, error)
	ReadRange(ctx context.Context, sessionID, sheet, addr string) (value.Value, error)
	WriteRange(ctx context.Context, sessionID, sheet, addr string, v value.Value) error
	SheetNames(ctx context.Context, sessionID string) ([]string, error)
	Release(ctx context.Context, sessionID string, restart bool) error
	Stats() slotpool.Stats
	Snapshot() []slotpool.SlotInfo
}

// Sessions issues and resolves bearer tokens.
type Sessions interface {
	Login(ctx context.Context, identity string) (string, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (string, error)
}

// Coordinator serves authenticated requests.
type Coordinator struct {
	pool     Pool
	sessions Sessions
	users    catalog.Store
	library  *docstore.Library
	policy   *policy.Policy
	limiter  *ratelimit.Keyed
	log      *slog.Logger
	cost     int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPolicy sets the access policy. The default knows no configured admins.
func WithPolicy(p *policy.Policy) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithLimiter throttles login attempts per client key. Nil disables throttling.
func WithLimiter(l *ratelimit.Keyed) Option {
	return func(c *Coordinator) { c.limiter = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBcryptCost sets the cost used when hashing passwords of upserted users.
func WithBcryptCost(cost int) Option {
	return func(c *Coordinator) { c.cost = cost }
}

// New returns a Coordinator.
func New(pool Pool, sessions Sessions, users catalog.Store, library *docstore.Library, opts ...Option) *Coordinator {
	c := &Coordinator{
		pool:     pool,
		sessions: sessions,
		users:    users,
		library:  library,
		policy:   &policy.Policy{},
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("coordinator"))
	return c
}

// Login checks the password of username and issues a token. clientKey
// identifies the caller for throttling, usually its IP address.
func (c *Coordinator) Login(ctx context.Context, clientKey, username, password string) (string, error) {
	if res := c.limiter.Allow("login:" + clientKey); !res.Allowed {
		c.log.WarnContext(ctx, "login throttled", slog.String("client", clientKey))
		return "", &Error{Kind: KindTooManyRequests, Reason: reasonTooManyAttempts, RetryAfter: res.RetryAfter}
	}

	if username == "" || password == "" {
		return "", fail(KindForbidden, reasonInvalidCredentials, nil)
	}
	u, err := c.users.GetUser(ctx, username)
	if errors.Is(err, catalog.ErrUserNotFound) {
		return "", fail(KindForbidden, reasonInvalidCredentials, err)
	}
	if err != nil {
		return "", fail(KindInternal, reasonStorage, err)
	}
	if !catalog.CheckPassword(u.PasswordHash, password) {
		c.log.InfoContext(ctx, "login rejected", logger.Identity(username))
		return "", fail(KindForbidden, reasonInvalidCredentials, nil)
	}

	token, err := c.sessions.Login(ctx, u.Name)
	if err != nil {
		return "", fail(KindInternal, reasonInternal, err)
	}
	c.log.InfoContext(ctx, "user logged in", logger.Identity(u.Name))
	return token, nil
}

// Logout forgets token. It does not release the token's slot.
func (c *Coordinator) Logout(ctx context.Context, token string) error {
	if err := c.sessions.Logout(ctx, token); err != nil {
		return fail(KindInternal, reasonInternal, err)
	}
	return nil
}

// authenticate resolves token to its user with configured admin roles applied.
func (c *Coordinator) authenticate(ctx context.Context, token string) (catalog.User, error) {
	if token == "" {
		return catalog.User{}, fail(KindUnauthorized, reasonUnauthorized, nil)
	}
	identity, err := c.sessions.Verify(ctx, token)
	if errors.Is(err, session.ErrSessionNotFound) {
		return catalog.User{}, fail(KindUnauthorized, reasonUnauthorized, err)
	}
	if err != nil {
		return catalog.User{}, fail(KindInternal, reasonInternal, err)
	}
	u, err := c.users.GetUser(ctx, identity)
	if errors.Is(err, catalog.ErrUserNotFound) {
		return catalog.User{}, fail(KindForbidden, reasonUserMissing, err)
	}
	if err != nil {
		return catalog.User{}, fail(KindInternal, reasonStorage, err)
	}
	return c.policy.Resolve(u), nil
}

// findApp loads owner/name. An empty owner means the caller.
func (c *Coordinator) findApp(ctx context.Context, caller catalog.User, owner, name string) (catalog.App, error) {
	if name == "" {
		return catalog.App{}, fail(KindBadRequest, reasonMissingAppName, nil)
	}
	if owner == "" {
		owner = caller.Name
	}
	if !catalog.ValidName(owner) || !catalog.ValidName(name) {
		return catalog.App{}, fail(KindBadRequest, reasonInvalidNames, catalog.ErrInvalidName)
	}
	app, err := c.users.GetApp(ctx, owner, name)
	if errors.Is(err, catalog.ErrAppNotFound) {
		return catalog.App{}, fail(KindNotFound, reasonNotFound, err)
	}
	if err != nil {
		return catalog.App{}, fail(KindInternal, reasonStorage, err)
	}
	return app, nil
}

func (c *Coordinator) requireAdmin(u catalog.User) error {
	if !c.policy.IsAdmin(u) {
		return fail(KindForbidden, reasonAdminRequired, nil)
	}
	return nil
}
