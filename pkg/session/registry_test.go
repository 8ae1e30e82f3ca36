package session_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/session"
)

var tokenFormat = regexp.MustCompile(`^[a-z0-9]{40}$`)

func TestRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("login issues distinct tokens per call", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore())

		t1, err := reg.Login(ctx, "alice")
		require.NoError(t, err)
		t2, err := reg.Login(ctx, "alice")
		require.NoError(t, err)

		assert.Regexp(t, tokenFormat, t1)
		assert.Regexp(t, tokenFormat, t2)
		assert.NotEqual(t, t1, t2)

		for _, tok := range []string{t1, t2} {
			id, err := reg.Verify(ctx, tok)
			require.NoError(t, err)
			assert.Equal(t, "alice", id)
		}

		require.NoError(t, reg.Logout(ctx, t1))
		_, err = reg.Verify(ctx, t1)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		id, err := reg.Verify(ctx, t2)
		require.NoError(t, err)
		assert.Equal(t, "alice", id)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore())
		tok, err := reg.Login(ctx, "bob")
		require.NoError(t, err)

		require.NoError(t, reg.Logout(ctx, tok))
		require.NoError(t, reg.Logout(ctx, tok))
		require.NoError(t, reg.Logout(ctx, ""))
	})

	t.Run("verify unknown and empty tokens", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore())
		_, err := reg.Verify(ctx, "nope")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
		_, err = reg.Verify(ctx, "")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("empty identity", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore())
		_, err := reg.Login(ctx, "")
		assert.ErrorIs(t, err, session.ErrEmptyIdentity)
	})

	t.Run("token length", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore(), session.WithTokenLength(64))
		tok, err := reg.Login(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, tok, 64)
	})

	t.Run("ttl expires sessions", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore(), session.WithTTL(20*time.Millisecond))
		tok, err := reg.Login(ctx, "alice")
		require.NoError(t, err)
		_, err = reg.Verify(ctx, tok)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			_, err := reg.Verify(ctx, tok)
			return err != nil
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("concurrent logins never collide", func(t *testing.T) {
		t.Parallel()
		reg := session.NewRegistry(session.NewMemoryStore())

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = make(map[string]struct{})
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := reg.Login(ctx, "alice")
				assert.NoError(t, err)
				mu.Lock()
				seen[tok] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 50)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	reg, err := session.NewFromConfig(session.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, reg)

	_, err = session.NewFromConfig(session.Config{Store: session.StoreRedis}, nil)
	assert.ErrorIs(t, err, session.ErrUnknownStore)

	_, err = session.NewFromConfig(session.Config{Store: "etcd"}, nil)
	assert.ErrorIs(t, err, session.ErrUnknownStore)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tok, err := session.GenerateToken(session.DefaultTokenLength)
	require.NoError(t, err)
	assert.Regexp(t, tokenFormat, tok)

	_, err = session.GenerateToken(0)
	assert.ErrorIs(t, err, session.ErrTokenGeneration)
}
