package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/session"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create get delete", func(t *testing.T) {
		t.Parallel()
		mr, client := newRedis(t)
		store := session.NewRedisStore(client, "test:")

		rec := session.Record{Identity: "alice", CreatedAt: time.Unix(1700000000, 0).UTC()}
		require.NoError(t, store.Create(ctx, "tok", rec, 0))
		assert.True(t, mr.Exists("test:tok"))
		assert.Zero(t, mr.TTL("test:tok"))

		got, err := store.Get(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, rec.Identity, got.Identity)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

		require.NoError(t, store.Delete(ctx, "tok"))
		_, err = store.Get(ctx, "tok")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
		require.NoError(t, store.Delete(ctx, "tok"))
	})

	t.Run("duplicate token", func(t *testing.T) {
		t.Parallel()
		_, client := newRedis(t)
		store := session.NewRedisStore(client, "test:")

		require.NoError(t, store.Create(ctx, "tok", session.Record{Identity: "alice"}, 0))
		err := store.Create(ctx, "tok", session.Record{Identity: "mallory"}, 0)
		assert.ErrorIs(t, err, session.ErrTokenExists)

		got, err := store.Get(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Identity)
	})

	t.Run("ttl", func(t *testing.T) {
		t.Parallel()
		mr, client := newRedis(t)
		store := session.NewRedisStore(client, "test:")

		require.NoError(t, store.Create(ctx, "tok", session.Record{Identity: "alice"}, time.Minute))
		assert.Equal(t, time.Minute, mr.TTL("test:tok"))

		mr.FastForward(2 * time.Minute)
		_, err := store.Get(ctx, "tok")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("registry over redis", func(t *testing.T) {
		t.Parallel()
		_, client := newRedis(t)
		cfg := session.DefaultConfig()
		cfg.Store = session.StoreRedis

		reg, err := session.NewFromConfig(cfg, client)
		require.NoError(t, err)

		tok, err := reg.Login(ctx, "alice")
		require.NoError(t, err)
		id, err := reg.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", id)

		require.NoError(t, reg.Logout(ctx, tok))
		_, err = reg.Verify(ctx, tok)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("server down", func(t *testing.T) {
		t.Parallel()
		mr, client := newRedis(t)
		store := session.NewRedisStore(client, "test:")
		mr.Close()

		_, err := store.Get(ctx, "tok")
		require.Error(t, err)
		assert.NotErrorIs(t, err, session.ErrSessionNotFound)
	})
}
