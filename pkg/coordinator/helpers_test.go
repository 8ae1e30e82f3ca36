package coordinator_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
	"github.com/dmitrymomot/sheetpool/pkg/engine/enginetest"
	"github.com/dmitrymomot/sheetpool/pkg/policy"
	"github.com/dmitrymomot/sheetpool/pkg/session"
	"github.com/dmitrymomot/sheetpool/pkg/slotpool"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

const (
	testCost = 4
	password = "secret"
)

type harness struct {
	coord    *coordinator.Coordinator
	launcher *enginetest.Launcher
	pool     *slotpool.Pool
	users    *catalog.MemoryStore
	sessions *session.Registry
	library  *docstore.Library
}

var defaultBook = enginetest.Book{
	"Inputs": {"A1": value.Float(10)},
	"Report": {"B2": value.String("total")},
}

// newHarness starts a pool of size slots and seeds alice (developer), bob
// (user in group finance), carol (user) and root (configured admin).
func newHarness(t *testing.T, size int, opts ...coordinator.Option) *harness {
	t.Helper()
	ctx := context.Background()

	l := enginetest.NewLauncher()
	pool, err := slotpool.New(ctx, l, size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close(context.Background()) })

	files, err := docstore.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	users := catalog.NewMemoryStore()
	for _, u := range []catalog.User{
		{Name: "alice", Role: catalog.RoleDeveloper},
		{Name: "bob", Role: catalog.RoleUser, Groups: []string{"finance"}},
		{Name: "carol", Role: catalog.RoleUser},
		{Name: "root", Role: catalog.RoleUser},
	} {
		hash, err := catalog.HashPassword(password, testCost)
		require.NoError(t, err)
		u.PasswordHash = hash
		require.NoError(t, users.PutUser(ctx, u))
	}

	sessions := session.NewRegistry(session.NewMemoryStore())
	library := docstore.NewLibrary(files)
	base := []coordinator.Option{
		coordinator.WithPolicy(policy.New("root")),
		coordinator.WithBcryptCost(testCost),
	}
	return &harness{
		coord:    coordinator.New(pool, sessions, users, library, append(base, opts...)...),
		launcher: l,
		pool:     pool,
		users:    users,
		sessions: sessions,
		library:  library,
	}
}

func (h *harness) login(t *testing.T, name string) string {
	t.Helper()
	token, err := h.coord.Login(context.Background(), "127.0.0.1", name, password)
	require.NoError(t, err)
	return token
}

// createApp publishes version 1 of name as the token's user and registers the
// default book for it in the fake engine.
func (h *harness) createApp(t *testing.T, token string, in coordinator.CreateAppInput) {
	t.Helper()
	if in.FileBase64 == "" {
		in.FileBase64 = b64("workbook-v1")
	}
	_, err := h.coord.CreateApp(context.Background(), token, in)
	require.NoError(t, err)
}

// register makes the stored workbook of owner/name/version openable.
func (h *harness) register(t *testing.T, owner, name string, version int, book enginetest.Book) string {
	t.Helper()
	path, err := h.library.WorkbookPath(context.Background(), owner, name, version)
	require.NoError(t, err)
	h.launcher.AddBook(path, book)
	return path
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func requireKind(t *testing.T, err error, kind coordinator.Kind, reason string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, coordinator.KindOf(err), "error: %v", err)
	if reason != "" {
		require.Equal(t, reason, coordinator.ReasonOf(err))
	}
}
