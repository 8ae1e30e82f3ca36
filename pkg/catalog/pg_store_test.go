package catalog_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
	"github.com/dmitrymomot/sheetpool/pkg/pg"
)

// Runs against a real database when CATALOG_TEST_PG_URL is set.
func TestPGStore(t *testing.T) {
	url := os.Getenv("CATALOG_TEST_PG_URL")
	if url == "" {
		t.Skip("CATALOG_TEST_PG_URL not set")
	}
	ctx := context.Background()

	cfg := pg.Config{ConnectionString: url, RetryAttempts: 1, MigrationsTable: "sheetpool_test_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.Migrate(ctx, pool, catalog.Migrations, cfg, logger.Discard()))

	_, err = pool.Exec(ctx, `TRUNCATE users, apps`)
	require.NoError(t, err)

	store := catalog.NewPGStore(pool)

	require.NoError(t, store.PutUser(ctx, catalog.User{Name: "alice", PasswordHash: "h", Role: catalog.RoleDeveloper}))
	require.NoError(t, store.PutUser(ctx, catalog.User{Name: "alice", PasswordHash: "h2", Groups: []string{"finance"}, Role: catalog.RoleUser}))
	u, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h2", u.PasswordHash)
	assert.Equal(t, []string{"finance"}, u.Groups)
	_, err = store.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)

	app := catalog.App{Owner: "alice", Name: "budget", LatestVersion: 1, Public: true}
	require.NoError(t, store.CreateApp(ctx, app))
	assert.ErrorIs(t, store.CreateApp(ctx, app), catalog.ErrAppExists)

	app.LatestVersion = 3
	require.NoError(t, store.PutApp(ctx, app))
	got, err := store.GetApp(ctx, "alice", "budget")
	require.NoError(t, err)
	assert.Equal(t, 3, got.LatestVersion)
	assert.True(t, got.Public)

	apps, err := store.ListApps(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	require.NoError(t, store.DeleteApp(ctx, "alice", "budget"))
	_, err = store.GetApp(ctx, "alice", "budget")
	assert.ErrorIs(t, err, catalog.ErrAppNotFound)
}
