package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
)

func TestMemoryStoreUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := catalog.NewMemoryStore()

	_, err := store.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)

	groups := []string{"finance"}
	require.NoError(t, store.PutUser(ctx, catalog.User{Name: "bob", Role: catalog.RoleUser}))
	require.NoError(t, store.PutUser(ctx, catalog.User{Name: "alice", Groups: groups, Role: catalog.RoleDeveloper}))
	groups[0] = "mutated"

	u, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, u.Groups)
	assert.Equal(t, catalog.RoleDeveloper, u.Role)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, "bob", users[1].Name)
}

func TestMemoryStoreApps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := catalog.NewMemoryStore()

	app := catalog.App{Owner: "alice", Name: "budget", LatestVersion: 1, AccessGroup: "finance"}
	require.NoError(t, store.CreateApp(ctx, app))
	assert.ErrorIs(t, store.CreateApp(ctx, app), catalog.ErrAppExists)

	got, err := store.GetApp(ctx, "alice", "budget")
	require.NoError(t, err)
	assert.Equal(t, "alice/budget", got.Key())
	assert.False(t, got.UpdatedAt.IsZero())

	got.LatestVersion = 2
	require.NoError(t, store.PutApp(ctx, got))
	got, err = store.GetApp(ctx, "alice", "budget")
	require.NoError(t, err)
	assert.Equal(t, 2, got.LatestVersion)

	require.NoError(t, store.CreateApp(ctx, catalog.App{Owner: "alice", Name: "alpha", LatestVersion: 1}))
	apps, err := store.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "alpha", apps[0].Name)

	require.NoError(t, store.DeleteApp(ctx, "alice", "budget"))
	require.NoError(t, store.DeleteApp(ctx, "alice", "budget"))
	_, err = store.GetApp(ctx, "alice", "budget")
	assert.ErrorIs(t, err, catalog.ErrAppNotFound)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	store, err := catalog.NewFromConfig(catalog.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.IsType(t, &catalog.MemoryStore{}, store)

	_, err = catalog.NewFromConfig(catalog.Config{Store: catalog.StorePostgres}, nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownStore)

	_, err = catalog.NewFromConfig(catalog.Config{Store: "sqlite"}, nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownStore)
}
