// Package session maps opaque bearer tokens to user identities.
//
// A Registry issues a fresh random token on every Login, so one identity may
// hold several valid tokens at once. Logout removes exactly one token and is
// idempotent. Sessions carry no other state: which engine slot a token is
// bound to is tracked by the slot pool, and logging out does not release it.
//
// Tokens are 40 characters drawn from [a-z0-9] with crypto/rand.
//
// Two stores are provided: MemoryStore for single-process deployments and
// tests, and RedisStore, which lets several API processes share sessions.
// Without a TTL sessions never expire.
//
//	reg := session.NewRegistry(session.NewMemoryStore())
//	token, err := reg.Login(ctx, "alice")
//	identity, err := reg.Verify(ctx, session.TokenFromRequest(r))
package session
