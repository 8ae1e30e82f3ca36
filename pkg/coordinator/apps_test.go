package coordinator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
)

func TestCreateApp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, 1)
	alice := h.login(t, "alice")

	version, err := h.coord.CreateApp(ctx, alice, coordinator.CreateAppInput{
		Name:        "budget",
		Description: "Q3 budget",
		FileBase64:  b64("xlsx"),
		ImageBase64: b64("png"),
		AccessGroup: "finance",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	app, err := h.users.GetApp(ctx, "alice", "budget")
	require.NoError(t, err)
	assert.Equal(t, 1, app.LatestVersion)
	assert.Equal(t, "finance", app.AccessGroup)

	cover, err := h.library.Cover(ctx, "alice", "budget", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), cover)

	tests := []struct {
		name   string
		in     coordinator.CreateAppInput
		kind   coordinator.Kind
		reason string
	}{
		{"missing file", coordinator.CreateAppInput{Name: "x"}, coordinator.KindBadRequest, "missing name or file_base64"},
		{"missing name", coordinator.CreateAppInput{FileBase64: b64("x")}, coordinator.KindBadRequest, "missing name or file_base64"},
		{"unsafe name", coordinator.CreateAppInput{Name: "../x", FileBase64: b64("x")}, coordinator.KindBadRequest, "invalid app name"},
		{"unsafe group", coordinator.CreateAppInput{Name: "x", FileBase64: b64("x"), AccessGroup: "a b"}, coordinator.KindBadRequest, "invalid access group"},
		{"bad base64", coordinator.CreateAppInput{Name: "x", FileBase64: "%%%"}, coordinator.KindBadRequest, "invalid file_base64"},
		{"duplicate", coordinator.CreateAppInput{Name: "budget", FileBase64: b64("x")}, coordinator.KindConflict, "app exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.coord.CreateApp(ctx, alice, tt.in)
			requireKind(t, err, tt.kind, tt.reason)
		})
	}
}

func TestListApps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, 1)
	alice := h.login(t, "alice")

	h.createApp(t, alice, coordinator.CreateAppInput{Name: "private"})
	h.createApp(t, alice, coordinator.CreateAppInput{Name: "shared", AccessGroup: "finance", ImageBase64: b64("img")})
	h.createApp(t, alice, coordinator.CreateAppInput{Name: "open", Public: true})
	require.NoError(t, h.coord.SaveUI(ctx, alice, "", "open", `{"components":[{"type":"input"}]}`))

	require.NoError(t, h.users.CreateApp(ctx, catalog.App{Owner: "ghost", Name: "orphan", LatestVersion: 1, Public: true}))

	names := func(views []coordinator.AppView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Owner+"/"+v.Name)
		}
		return out
	}

	own, err := h.coord.ListApps(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/open", "alice/private", "alice/shared"}, names(own))

	bob, err := h.coord.ListApps(ctx, h.login(t, "bob"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/open", "alice/shared"}, names(bob))

	carol, err := h.coord.ListApps(ctx, h.login(t, "carol"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/open"}, names(carol))
	assert.True(t, carol[0].HasUI)
	assert.Empty(t, carol[0].ImageBase64)

	root, err := h.coord.ListApps(ctx, h.login(t, "root"))
	require.NoError(t, err)
	assert.Len(t, root, 3)
	for _, v := range root {
		if v.Name == "shared" {
			assert.Equal(t, b64("img"), v.ImageBase64)
			assert.False(t, v.HasUI)
		}
	}
}

func TestUpdateApp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, 1)
	alice := h.login(t, "alice")
	h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget", Description: "old", Public: true})

	public := false
	version, err := h.coord.UpdateApp(ctx, alice, "budget", coordinator.UpdateAppInput{
		FileBase64:  b64("new-bytes"),
		AccessGroup: "finance",
		Public:      &public,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	app, err := h.users.GetApp(ctx, "alice", "budget")
	require.NoError(t, err)
	assert.Equal(t, "old", app.Description)
	assert.Equal(t, "finance", app.AccessGroup)
	assert.False(t, app.Public)
	assert.Equal(t, 1, app.LatestVersion)

	t.Run("visibility kept when omitted", func(t *testing.T) {
		_, err := h.coord.UpdateApp(ctx, alice, "budget", coordinator.UpdateAppInput{Description: "new"})
		require.NoError(t, err)
		app, err := h.users.GetApp(ctx, "alice", "budget")
		require.NoError(t, err)
		assert.Equal(t, "new", app.Description)
		assert.False(t, app.Public)
	})

	t.Run("new_version is refused", func(t *testing.T) {
		_, err := h.coord.UpdateApp(ctx, alice, "budget", coordinator.UpdateAppInput{NewVersion: true})
		requireKind(t, err, coordinator.KindBadRequest, "use /apps/version to publish new versions")
	})

	t.Run("apps are looked up under the caller", func(t *testing.T) {
		_, err := h.coord.UpdateApp(ctx, h.login(t, "bob"), "budget", coordinator.UpdateAppInput{})
		requireKind(t, err, coordinator.KindNotFound, "not found")
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := h.coord.UpdateApp(ctx, alice, "..", coordinator.UpdateAppInput{})
		requireKind(t, err, coordinator.KindBadRequest, "invalid app name")
	})
}

func TestPublishVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("carries workbook, schema and cover over", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 1)
		alice := h.login(t, "alice")
		h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget", ImageBase64: b64("cover")})
		schema := `{"components":[{"id":1}]}`
		require.NoError(t, h.coord.SaveUI(ctx, alice, "", "budget", schema))

		version, err := h.coord.PublishVersion(ctx, alice, coordinator.PublishInput{Name: "budget", Description: "v2"})
		require.NoError(t, err)
		assert.Equal(t, 2, version)

		_, err = h.library.WorkbookPath(ctx, "alice", "budget", 2)
		require.NoError(t, err)
		got, found, err := h.library.UI(ctx, "alice", "budget", 2)
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, schema, got)
		cover, err := h.library.Cover(ctx, "alice", "budget", 2)
		require.NoError(t, err)
		assert.Equal(t, []byte("cover"), cover)

		app, err := h.users.GetApp(ctx, "alice", "budget")
		require.NoError(t, err)
		assert.Equal(t, 2, app.LatestVersion)
		assert.Equal(t, "v2", app.Description)
	})

	t.Run("new schema and file", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 1)
		alice := h.login(t, "alice")
		h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget"})

		_, err := h.coord.PublishVersion(ctx, alice, coordinator.PublishInput{
			Name:       "budget",
			FileBase64: b64("v2"),
			SchemaJSON: `{"components":[]}`,
		})
		require.NoError(t, err)

		view, err := h.coord.GetUI(ctx, alice, "", "budget")
		require.NoError(t, err)
		assert.JSONEq(t, docstore.EmptySchema, view.Schema)
	})

	t.Run("default schema when none stored", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 1)
		alice := h.login(t, "alice")
		h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget"})

		_, err := h.coord.PublishVersion(ctx, alice, coordinator.PublishInput{Name: "budget"})
		require.NoError(t, err)
		got, found, err := h.library.UI(ctx, "alice", "budget", 2)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, docstore.EmptySchema, got)
	})

	t.Run("rules", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 1)
		alice := h.login(t, "alice")
		h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget", Public: true})

		_, err := h.coord.PublishVersion(ctx, h.login(t, "bob"), coordinator.PublishInput{Owner: "alice", Name: "budget"})
		requireKind(t, err, coordinator.KindForbidden, "forbidden")

		_, err = h.coord.PublishVersion(ctx, alice, coordinator.PublishInput{
			Name:       "budget",
			SchemaJSON: `{"x":"` + strings.Repeat("a", coordinator.MaxSchemaBytes) + `"}`,
		})
		requireKind(t, err, coordinator.KindBadRequest, "schema too large")

		_, err = h.coord.PublishVersion(ctx, alice, coordinator.PublishInput{Name: "budget", SchemaJSON: "{"})
		requireKind(t, err, coordinator.KindBadRequest, "invalid schema")

		version, err := h.coord.PublishVersion(ctx, h.login(t, "root"), coordinator.PublishInput{Owner: "alice", Name: "budget"})
		require.NoError(t, err)
		assert.Equal(t, 2, version)
	})

	t.Run("workbook missing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, 1)
		require.NoError(t, h.users.CreateApp(ctx, catalog.App{Owner: "alice", Name: "empty", LatestVersion: 1}))
		_, err := h.coord.PublishVersion(ctx, h.login(t, "alice"), coordinator.PublishInput{Name: "empty"})
		requireKind(t, err, coordinator.KindBadRequest, "workbook missing")
	})
}

func TestDeleteApp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, 1)
	alice := h.login(t, "alice")
	h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget"})

	err := h.coord.DeleteApp(ctx, h.login(t, "bob"), "budget")
	requireKind(t, err, coordinator.KindNotFound, "not found")

	require.NoError(t, h.coord.DeleteApp(ctx, alice, "budget"))
	_, err = h.users.GetApp(ctx, "alice", "budget")
	require.ErrorIs(t, err, catalog.ErrAppNotFound)
	_, err = h.library.WorkbookPath(ctx, "alice", "budget", 1)
	require.ErrorIs(t, err, docstore.ErrNotFound)

	err = h.coord.DeleteApp(ctx, alice, "budget")
	requireKind(t, err, coordinator.KindNotFound, "not found")
}

func TestUI(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, 1)
	alice := h.login(t, "alice")
	bob := h.login(t, "bob")
	carol := h.login(t, "carol")
	h.createApp(t, alice, coordinator.CreateAppInput{Name: "budget", AccessGroup: "finance"})

	view, err := h.coord.GetUI(ctx, bob, "alice", "budget")
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Owner)
	assert.Equal(t, docstore.EmptySchema, view.Schema)

	_, err = h.coord.GetUI(ctx, carol, "alice", "budget")
	requireKind(t, err, coordinator.KindForbidden, "forbidden")

	_, err = h.coord.GetUI(ctx, bob, "alice", "")
	requireKind(t, err, coordinator.KindBadRequest, "missing name")

	err = h.coord.SaveUI(ctx, bob, "alice", "budget", `{"components":[]}`)
	requireKind(t, err, coordinator.KindForbidden, "forbidden")

	err = h.coord.SaveUI(ctx, alice, "", "budget", "")
	requireKind(t, err, coordinator.KindBadRequest, "missing fields")

	schema := `{"components":[{"id":"total"}]}`
	require.NoError(t, h.coord.SaveUI(ctx, alice, "", "budget", schema))
	view, err = h.coord.GetUI(ctx, bob, "alice", "budget")
	require.NoError(t, err)
	assert.JSONEq(t, schema, view.Schema)
}
