package session

import (
	"context"
	"time"
)

// Record is what a token resolves to.
type Record struct {
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists token records.
type Store interface {
	// Create saves rec under token. It fails with ErrTokenExists if the token
	// is taken. A positive ttl makes the record expire.
	Create(ctx context.Context, token string, rec Record, ttl time.Duration) error

	// Get returns the record of token or ErrSessionNotFound.
	Get(ctx context.Context, token string) (Record, error)

	// Delete removes token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
