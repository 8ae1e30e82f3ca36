package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/api"
	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
	"github.com/dmitrymomot/sheetpool/pkg/engine/enginetest"
	"github.com/dmitrymomot/sheetpool/pkg/httpserver"
	"github.com/dmitrymomot/sheetpool/pkg/policy"
	"github.com/dmitrymomot/sheetpool/pkg/ratelimit"
	"github.com/dmitrymomot/sheetpool/pkg/session"
	"github.com/dmitrymomot/sheetpool/pkg/slotpool"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

type testServer struct {
	*httptest.Server
	launcher *enginetest.Launcher
	library  *docstore.Library
}

func newServer(t *testing.T, poolSize int, opts ...api.Option) *testServer {
	t.Helper()
	ctx := context.Background()

	l := enginetest.NewLauncher()
	pool, err := slotpool.New(ctx, l, poolSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close(context.Background()) })

	files, err := docstore.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	library := docstore.NewLibrary(files)

	users := catalog.NewMemoryStore()
	seed := catalog.SeedFile{
		Users: []catalog.SeedUser{
			{Username: "alice", Password: "pw", Role: "developer"},
			{Username: "bob", Password: "pw", Groups: []string{"finance"}},
		},
		Admins: []string{"root"},
	}
	require.NoError(t, catalog.Seed(ctx, users, seed, 4, nil))

	limiter, err := ratelimit.New(100, 100)
	require.NoError(t, err)
	coord := coordinator.New(pool, session.NewRegistry(session.NewMemoryStore()), users, library,
		coordinator.WithPolicy(policy.New(seed.Admins...)),
		coordinator.WithLimiter(limiter),
		coordinator.WithBcryptCost(4),
	)

	srv := httptest.NewServer(api.New(coord, opts...))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, launcher: l, library: library}
}

type reply struct {
	status int
	header http.Header
	body   []byte
}

func (r reply) json(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.body, &m), "body: %s", r.body)
	return m
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) reply {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return reply{status: resp.StatusCode, header: resp.Header, body: data}
}

func (s *testServer) login(t *testing.T, user string) string {
	t.Helper()
	password := "pw"
	if user == "root" {
		password = "admin"
	}
	r := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": user, "password": password})
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)
	return r.json(t)["token"].(string)
}

// publish creates app name for token's user and makes its first version openable.
func (s *testServer) publish(t *testing.T, token, owner, name string, body map[string]any) {
	t.Helper()
	if body == nil {
		body = map[string]any{}
	}
	body["name"] = name
	body["file_base64"] = base64.StdEncoding.EncodeToString([]byte("xlsx"))
	r := s.do(t, http.MethodPost, "/apps", token, body)
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)

	path, err := s.library.WorkbookPath(context.Background(), owner, name, 1)
	require.NoError(t, err)
	s.launcher.AddBook(path, enginetest.Book{
		"Inputs": {"A1": value.Float(10), "B1": value.String(`say "hi"`)},
		"Report": {},
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)

	r := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ok", r.json(t)["status"])

	r = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, r.status)
}

func TestReadinessChecks(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1, api.WithReadiness(httpserver.Check{
		Name:  "postgres",
		Probe: func(context.Context) error { return assert.AnError },
	}))
	r := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, r.status)
}

func TestLoginAndLogout(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)

	r := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "invalid credentials", r.json(t)["error"])

	token := s.login(t, "alice")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/apps", token, nil).status)

	r = s.do(t, http.MethodPost, "/logout", token, nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ok", r.json(t)["status"])

	r = s.do(t, http.MethodGet, "/apps", token, nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "unauthorized", r.json(t)["error"])
}

func TestLoginThrottled(t *testing.T) {
	t.Parallel()
	limiter, err := ratelimit.New(0.01, 1)
	require.NoError(t, err)
	coord := coordinator.New(nil, session.NewRegistry(session.NewMemoryStore()), catalog.NewMemoryStore(), nil,
		coordinator.WithLimiter(limiter))
	srv := httptest.NewServer(api.New(coord))
	t.Cleanup(srv.Close)
	ts := &testServer{Server: srv}

	body := map[string]string{"username": "x", "password": "y"}
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/login", "", body).status)
	r := ts.do(t, http.MethodPost, "/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, r.status)
	assert.NotEmpty(t, r.header.Get("Retry-After"))
}

func TestContentType(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/login", strings.NewReader("username=alice"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, s.URL+"/login", strings.NewReader(`{"username":"alice","password":"pw"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "missing content type is accepted")

	r := s.do(t, http.MethodPost, "/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "invalid json", r.json(t)["error"])
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1, api.WithMaxBodyBytes(64))
	r := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": strings.Repeat("a", 100)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, r.status)
}

func TestCORS(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)

	r := s.do(t, http.MethodOptions, "/excel/load", "", nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Empty(t, r.body)
	assert.Equal(t, "*", r.header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, r.header.Get("Access-Control-Allow-Methods"), "DELETE")

	r = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "Content-Type, Authorization", r.header.Get("Access-Control-Allow-Headers"))
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)
	r := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "not found", r.json(t)["error"])
	assert.NotEmpty(t, r.header.Get("X-Request-ID"))
}

func TestWorkbookSession(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)
	alice := s.login(t, "alice")
	s.publish(t, alice, "alice", "budget", nil)

	r := s.do(t, http.MethodPost, "/excel/query", alice, map[string]string{"sheet": "Inputs", "range": "A1"})
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "no active session", r.json(t)["error"])

	r = s.do(t, http.MethodPost, "/excel/load", alice, map[string]any{"name": "budget"})
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)
	assert.Equal(t, map[string]any{"status": "loaded", "version": float64(1)}, r.json(t))

	r = s.do(t, http.MethodPost, "/excel/query", alice, map[string]string{"sheet": "Inputs", "range": "A1"})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, float64(10), r.json(t)["value"])

	r = s.do(t, http.MethodPost, "/excel/query", alice, map[string]string{"sheet": "Inputs", "range": "B1"})
	assert.Equal(t, `say "hi"`, r.json(t)["value"])

	r = s.do(t, http.MethodPost, "/excel/set", alice, map[string]any{"sheet": "Inputs", "range": "A1", "value_number": 7.5})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "updated", r.json(t)["status"])

	r = s.do(t, http.MethodPost, "/excel/set", alice, map[string]any{"sheet": "Inputs", "range": "A1"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "value required", r.json(t)["error"])

	r = s.do(t, http.MethodPost, "/excel/query", alice, map[string]string{"sheet": "Inputs", "range": "A1"})
	assert.Equal(t, 7.5, r.json(t)["value"])

	r = s.do(t, http.MethodPost, "/excel/sheets", alice, map[string]string{})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, []any{"Inputs", "Report"}, r.json(t)["sheets"])

	bob := s.login(t, "bob")
	r = s.do(t, http.MethodPost, "/excel/load", bob, map[string]any{"owner": "alice", "name": "budget"})
	assert.Equal(t, http.StatusForbidden, r.status)

	r = s.do(t, http.MethodPost, "/excel/close", alice, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, map[string]any{"status": "closed", "session": "restarted"}, r.json(t))

	r = s.do(t, http.MethodPost, "/excel/query", alice, map[string]string{"sheet": "Inputs", "range": "A1"})
	assert.Equal(t, http.StatusNotFound, r.status)
}

func TestPoolExhausted(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)
	alice := s.login(t, "alice")
	s.publish(t, alice, "alice", "budget", map[string]any{"public": true})

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/excel/load", alice, map[string]any{"name": "budget"}).status)

	bob := s.login(t, "bob")
	r := s.do(t, http.MethodPost, "/excel/load", bob, map[string]any{"owner": "alice", "name": "budget"})
	assert.Equal(t, http.StatusServiceUnavailable, r.status)
	assert.Equal(t, "no available excel instances", r.json(t)["error"])

	r = s.do(t, http.MethodPost, "/excel/close", alice, map[string]any{"restart": false})
	assert.Equal(t, "released", r.json(t)["session"])

	r = s.do(t, http.MethodPost, "/excel/load", bob, map[string]any{"owner": "alice", "name": "budget"})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestAppsLifecycle(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)
	alice := s.login(t, "alice")
	s.publish(t, alice, "alice", "budget", map[string]any{"access_group": "finance", "description": "Q3"})

	r := s.do(t, http.MethodPost, "/apps", alice, map[string]any{"name": "budget", "file_base64": "eA=="})
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "app exists", r.json(t)["error"])

	bob := s.login(t, "bob")
	r = s.do(t, http.MethodGet, "/apps", bob, nil)
	require.Equal(t, http.StatusOK, r.status)
	var apps []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, "alice", apps[0]["owner"])
	assert.Equal(t, float64(1), apps[0]["latest_version"])
	assert.Equal(t, "Q3", apps[0]["description"])
	assert.Equal(t, false, apps[0]["has_ui"])

	r = s.do(t, http.MethodPut, "/apps/budget", alice, map[string]any{"description": "Q4"})
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)
	assert.Equal(t, map[string]any{"status": "updated", "version": float64(1)}, r.json(t))

	r = s.do(t, http.MethodPut, "/apps/budget", alice, map[string]any{"new_version": true})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = s.do(t, http.MethodPost, "/apps/ui/save", alice, map[string]any{"name": "budget", "schema_json": `{"components":[{"id":"a"}]}`})
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)
	assert.Equal(t, "saved", r.json(t)["status"])

	r = s.do(t, http.MethodPost, "/apps/version", alice, map[string]any{"name": "budget"})
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)
	assert.Equal(t, map[string]any{"status": "version_created", "version": float64(2)}, r.json(t))

	r = s.do(t, http.MethodPost, "/apps/ui/get", bob, map[string]any{"owner": "alice", "name": "budget"})
	require.Equal(t, http.StatusOK, r.status)
	ui := r.json(t)
	assert.Equal(t, "budget", ui["name"])
	assert.Equal(t, map[string]any{"components": []any{map[string]any{"id": "a"}}}, ui["schema"])

	r = s.do(t, http.MethodDelete, "/apps/budget", bob, nil)
	assert.Equal(t, http.StatusNotFound, r.status)

	r = s.do(t, http.MethodDelete, "/apps/budget", alice, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "deleted", r.json(t)["status"])

	r = s.do(t, http.MethodGet, "/apps", alice, nil)
	assert.JSONEq(t, "[]", string(r.body))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1)

	r := s.do(t, http.MethodGet, "/users", s.login(t, "alice"), nil)
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "admin required", r.json(t)["error"])

	root := s.login(t, "root")
	r = s.do(t, http.MethodPost, "/users", root, map[string]string{
		"username": "dave", "password": "pw", "groups": "finance,ops", "role": "developer",
	})
	require.Equal(t, http.StatusOK, r.status, "body: %s", r.body)

	r = s.do(t, http.MethodPost, "/users", root, map[string]string{"username": "eve", "password": "pw", "role": "administrator"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "role must be user or developer", r.json(t)["error"])

	r = s.do(t, http.MethodGet, "/users", root, nil)
	require.Equal(t, http.StatusOK, r.status)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &users))
	roles := map[string]any{}
	for _, u := range users {
		roles[u["name"].(string)] = u["role"]
	}
	assert.Equal(t, "administrator", roles["root"])
	assert.Equal(t, "developer", roles["dave"])

	assert.NotEmpty(t, s.login(t, "dave"))
}

func TestPoolStatusRoute(t *testing.T) {
	t.Parallel()
	s := newServer(t, 2)

	r := s.do(t, http.MethodGet, "/excel/status", s.login(t, "root"), nil)
	require.Equal(t, http.StatusOK, r.status)
	body := r.json(t)
	assert.Equal(t, float64(2), body["size"])
	assert.Len(t, body["slots"], 2)
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	s := newServer(t, 1, api.WithMetrics(reg, reg))

	s.do(t, http.MethodGet, "/health", "", nil)
	r := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, string(r.body), `sheetpool_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRequestTimeout(t *testing.T) {
	t.Parallel()
	s := newServer(t, 1, api.WithRequestTimeout(250*time.Millisecond))
	alice := s.login(t, "alice")
	s.publish(t, alice, "alice", "budget", nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/excel/load", alice, map[string]any{"name": "budget"}).status)

	s.launcher.BeforeRead(func(ctx context.Context) { <-ctx.Done() })
	r := s.do(t, http.MethodPost, "/excel/query", alice, map[string]string{"sheet": "Inputs", "range": "A1"})
	assert.GreaterOrEqual(t, r.status, http.StatusInternalServerError)
}
