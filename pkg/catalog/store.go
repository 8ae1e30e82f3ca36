package catalog

import "context"

// Store persists users and apps. Getters return ErrUserNotFound or ErrAppNotFound.
type Store interface {
	GetUser(ctx context.Context, name string) (User, error)
	PutUser(ctx context.Context, u User) error
	ListUsers(ctx context.Context) ([]User, error)

	GetApp(ctx context.Context, owner, name string) (App, error)
	// CreateApp fails with ErrAppExists when owner/name is taken.
	CreateApp(ctx context.Context, a App) error
	PutApp(ctx context.Context, a App) error
	ListApps(ctx context.Context) ([]App, error)
	DeleteApp(ctx context.Context, owner, name string) error
}
