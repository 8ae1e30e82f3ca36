package coordinator

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
)

// AppView is an app as listed to a user.
type AppView struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	LatestVersion int    `json:"latest_version"`
	Description   string `json:"description"`
	Public        bool   `json:"public"`
	AccessGroup   string `json:"access_group"`
	HasUI         bool   `json:"has_ui"`
	ImageBase64   string `json:"image_base64"`
}

// CreateAppInput describes a new app. FileBase64 holds the version 1 workbook.
type CreateAppInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FileBase64  string `json:"file_base64"`
	AccessGroup string `json:"access_group"`
	ImageBase64 string `json:"image_base64"`
	Public      bool   `json:"public"`
}

// UpdateAppInput changes the latest version in place. Empty strings keep the
// current values; a nil Public keeps the current visibility.
type UpdateAppInput struct {
	Description string `json:"description"`
	FileBase64  string `json:"file_base64"`
	AccessGroup string `json:"access_group"`
	ImageBase64 string `json:"image_base64"`
	Public      *bool  `json:"public"`
	NewVersion  bool   `json:"new_version"`
}

// PublishInput creates version latest+1 of Owner/Name.
type PublishInput struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FileBase64  string `json:"file_base64"`
	ImageBase64 string `json:"image_base64"`
	SchemaJSON  string `json:"schema_json"`
	AccessGroup string `json:"access_group"`
	Public      *bool  `json:"public"`
}

// UIView is the UI schema of an app. Schema is raw JSON.
type UIView struct {
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

// ListApps returns the apps the caller may open. Apps whose owner no longer
// exists are hidden.
func (c *Coordinator) ListApps(ctx context.Context, token string) ([]AppView, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	apps, err := c.users.ListApps(ctx)
	if err != nil {
		return nil, fail(KindInternal, reasonStorage, err)
	}

	owners := make(map[string]bool)
	out := make([]AppView, 0, len(apps))
	for _, app := range apps {
		exists, seen := owners[app.Owner]
		if !seen {
			_, err := c.users.GetUser(ctx, app.Owner)
			switch {
			case err == nil:
				exists = true
			case !errors.Is(err, catalog.ErrUserNotFound):
				return nil, fail(KindInternal, reasonStorage, err)
			}
			owners[app.Owner] = exists
		}
		if !exists || !c.policy.CanAccess(caller, app) {
			continue
		}

		view, err := c.view(ctx, app)
		if err != nil {
			return nil, fail(KindInternal, reasonStorage, err)
		}
		out = append(out, view)
	}
	return out, nil
}

func (c *Coordinator) view(ctx context.Context, app catalog.App) (AppView, error) {
	hasUI, err := c.library.HasUI(ctx, app.Owner, app.Name, app.LatestVersion)
	if err != nil {
		return AppView{}, err
	}
	cover, err := c.library.Cover(ctx, app.Owner, app.Name, app.LatestVersion)
	if err != nil {
		return AppView{}, err
	}
	v := AppView{
		Owner:         app.Owner,
		Name:          app.Name,
		LatestVersion: app.LatestVersion,
		Description:   app.Description,
		Public:        app.Public,
		AccessGroup:   app.AccessGroup,
		HasUI:         hasUI,
	}
	if len(cover) > 0 {
		v.ImageBase64 = base64.StdEncoding.EncodeToString(cover)
	}
	return v, nil
}

// CreateApp stores version 1 of a new app owned by the caller.
func (c *Coordinator) CreateApp(ctx context.Context, token string, in CreateAppInput) (int, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	if in.Name == "" || in.FileBase64 == "" {
		return 0, fail(KindBadRequest, "missing name or file_base64", nil)
	}
	if !catalog.ValidName(in.Name) {
		return 0, fail(KindBadRequest, "invalid app name", catalog.ErrInvalidName)
	}
	if err := checkGroup(in.AccessGroup); err != nil {
		return 0, err
	}
	workbook, err := decode("file_base64", in.FileBase64)
	if err != nil {
		return 0, err
	}
	image, err := decode("image_base64", in.ImageBase64)
	if err != nil {
		return 0, err
	}

	if _, err := c.users.GetApp(ctx, caller.Name, in.Name); err == nil {
		return 0, fail(KindConflict, "app exists", catalog.ErrAppExists)
	} else if !errors.Is(err, catalog.ErrAppNotFound) {
		return 0, fail(KindInternal, reasonStorage, err)
	}

	const version = 1
	if err := c.library.SaveWorkbook(ctx, caller.Name, in.Name, version, workbook); err != nil {
		return 0, fail(KindInternal, "cannot save workbook", err)
	}
	if err := c.library.WriteMeta(ctx, caller.Name, in.Name, version, in.Description); err != nil {
		return 0, fail(KindInternal, "cannot save workbook", err)
	}
	app := catalog.App{
		Owner:         caller.Name,
		Name:          in.Name,
		LatestVersion: version,
		Description:   in.Description,
		Public:        in.Public,
		AccessGroup:   in.AccessGroup,
	}
	if err := c.users.CreateApp(ctx, app); errors.Is(err, catalog.ErrAppExists) {
		return 0, fail(KindConflict, "app exists", err)
	} else if err != nil {
		return 0, fail(KindInternal, reasonStorage, err)
	}
	if len(image) > 0 {
		if err := c.library.SaveCover(ctx, caller.Name, in.Name, version, image); err != nil {
			return 0, fail(KindInternal, "cannot save image", err)
		}
	}

	c.log.InfoContext(ctx, "app created", logger.Identity(caller.Name), logger.App(app.Owner, app.Name))
	return version, nil
}

// UpdateApp rewrites the latest version of the caller's app name in place.
func (c *Coordinator) UpdateApp(ctx context.Context, token, name string, in UpdateAppInput) (int, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	app, err := c.ownApp(ctx, caller, name)
	if err != nil {
		return 0, err
	}
	if in.NewVersion {
		return 0, fail(KindBadRequest, "use /apps/version to publish new versions", nil)
	}
	if err := checkGroup(in.AccessGroup); err != nil {
		return 0, err
	}
	workbook, err := decode("file_base64", in.FileBase64)
	if err != nil {
		return 0, err
	}
	image, err := decode("image_base64", in.ImageBase64)
	if err != nil {
		return 0, err
	}

	version := app.LatestVersion
	if len(workbook) > 0 {
		if err := c.library.SaveWorkbook(ctx, app.Owner, app.Name, version, workbook); err != nil {
			return 0, fail(KindInternal, "cannot save workbook", err)
		}
	}
	applyChanges(&app, in.Description, in.AccessGroup, in.Public)
	if err := c.library.WriteMeta(ctx, app.Owner, app.Name, version, app.Description); err != nil {
		return 0, fail(KindInternal, "cannot save workbook", err)
	}
	if err := c.users.PutApp(ctx, app); err != nil {
		return 0, fail(KindInternal, reasonStorage, err)
	}
	if len(image) > 0 {
		if err := c.library.SaveCover(ctx, app.Owner, app.Name, version, image); err != nil {
			return 0, fail(KindInternal, "cannot save image", err)
		}
	}

	c.log.InfoContext(ctx, "app updated", logger.Identity(caller.Name), logger.App(app.Owner, app.Name))
	return version, nil
}

// PublishVersion creates version latest+1. The workbook comes from the input
// or is copied from the previous version; the schema and cover are carried
// over when not given.
func (c *Coordinator) PublishVersion(ctx context.Context, token string, in PublishInput) (int, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	app, err := c.findApp(ctx, caller, in.Owner, in.Name)
	if err != nil {
		return 0, err
	}
	if !c.policy.CanManage(caller, app) {
		return 0, fail(KindForbidden, reasonForbidden, nil)
	}
	if err := checkGroup(in.AccessGroup); err != nil {
		return 0, err
	}
	if in.SchemaJSON != "" {
		if err := checkSchema(in.SchemaJSON); err != nil {
			return 0, err
		}
	}
	workbook, err := decode("file_base64", in.FileBase64)
	if err != nil {
		return 0, err
	}
	image, err := decode("image_base64", in.ImageBase64)
	if err != nil {
		return 0, err
	}

	prev := app.LatestVersion
	version := prev + 1
	if len(workbook) > 0 {
		err = c.library.SaveWorkbook(ctx, app.Owner, app.Name, version, workbook)
	} else {
		err = c.library.CopyWorkbook(ctx, app.Owner, app.Name, prev, version)
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return 0, fail(KindBadRequest, "workbook missing", err)
	}
	if err != nil {
		return 0, fail(KindInternal, "cannot save workbook", err)
	}

	schema := in.SchemaJSON
	if schema == "" {
		if schema, _, err = c.library.UI(ctx, app.Owner, app.Name, prev); err != nil {
			return 0, fail(KindInternal, "cannot save schema", err)
		}
	}
	if err := c.library.SaveUI(ctx, app.Owner, app.Name, version, schema); err != nil {
		return 0, fail(KindInternal, "cannot save schema", err)
	}

	if len(image) > 0 {
		err = c.library.SaveCover(ctx, app.Owner, app.Name, version, image)
	} else {
		err = c.library.CarryCover(ctx, app.Owner, app.Name, prev, version)
	}
	if err != nil {
		return 0, fail(KindInternal, "cannot persist image", err)
	}

	applyChanges(&app, in.Description, in.AccessGroup, in.Public)
	app.LatestVersion = version
	if err := c.library.WriteMeta(ctx, app.Owner, app.Name, version, app.Description); err != nil {
		return 0, fail(KindInternal, "cannot save workbook", err)
	}
	if err := c.users.PutApp(ctx, app); err != nil {
		return 0, fail(KindInternal, reasonStorage, err)
	}

	c.log.InfoContext(ctx, "app version published",
		logger.Identity(caller.Name), logger.App(app.Owner, app.Name), logger.Version(version))
	return version, nil
}

// DeleteApp removes the caller's app name with every version.
func (c *Coordinator) DeleteApp(ctx context.Context, token, name string) error {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return err
	}
	app, err := c.ownApp(ctx, caller, name)
	if err != nil {
		return err
	}
	if err := c.library.DeleteApp(ctx, app.Owner, app.Name); err != nil {
		return fail(KindInternal, "cannot delete files", err)
	}
	if err := c.users.DeleteApp(ctx, app.Owner, app.Name); err != nil {
		return fail(KindInternal, reasonStorage, err)
	}
	c.log.InfoContext(ctx, "app deleted", logger.Identity(caller.Name), logger.App(app.Owner, app.Name))
	return nil
}

// GetUI returns the UI schema of the latest version of owner/name.
func (c *Coordinator) GetUI(ctx context.Context, token, owner, name string) (UIView, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return UIView{}, err
	}
	if name == "" {
		return UIView{}, fail(KindBadRequest, "missing name", nil)
	}
	app, err := c.findApp(ctx, caller, owner, name)
	if err != nil {
		return UIView{}, err
	}
	if !c.policy.CanAccess(caller, app) {
		return UIView{}, fail(KindForbidden, reasonForbidden, nil)
	}
	schema, _, err := c.library.UI(ctx, app.Owner, app.Name, app.LatestVersion)
	if err != nil {
		return UIView{}, fail(KindInternal, reasonStorage, err)
	}
	if !gjson.Valid(schema) {
		c.log.WarnContext(ctx, "stored ui schema is not json", logger.App(app.Owner, app.Name))
		schema = docstore.EmptySchema
	}
	return UIView{Owner: app.Owner, Name: app.Name, Schema: schema}, nil
}

// SaveUI stores schema for the latest version of owner/name and as the
// app-level fallback.
func (c *Coordinator) SaveUI(ctx context.Context, token, owner, name, schema string) error {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return err
	}
	if name == "" || schema == "" {
		return fail(KindBadRequest, "missing fields", nil)
	}
	if err := checkSchema(schema); err != nil {
		return err
	}
	app, err := c.findApp(ctx, caller, owner, name)
	if err != nil {
		return err
	}
	if !c.policy.CanManage(caller, app) {
		return fail(KindForbidden, reasonForbidden, nil)
	}
	if err := c.library.SaveUI(ctx, app.Owner, app.Name, app.LatestVersion, schema); err != nil {
		return fail(KindInternal, "cannot save schema", err)
	}
	return nil
}

// ownApp loads the caller's app name and checks it may be managed.
func (c *Coordinator) ownApp(ctx context.Context, caller catalog.User, name string) (catalog.App, error) {
	if name == "" {
		return catalog.App{}, fail(KindBadRequest, reasonMissingAppName, nil)
	}
	if !catalog.ValidName(name) {
		return catalog.App{}, fail(KindBadRequest, "invalid app name", catalog.ErrInvalidName)
	}
	app, err := c.findApp(ctx, caller, caller.Name, name)
	if err != nil {
		return catalog.App{}, err
	}
	if !c.policy.CanManage(caller, app) {
		return catalog.App{}, fail(KindForbidden, reasonForbidden, nil)
	}
	return app, nil
}

func applyChanges(app *catalog.App, description, group string, public *bool) {
	if description != "" {
		app.Description = description
	}
	if group != "" {
		app.AccessGroup = group
	}
	if public != nil {
		app.Public = *public
	}
}

func checkGroup(group string) error {
	if group != "" && !catalog.ValidName(group) {
		return fail(KindBadRequest, "invalid access group", catalog.ErrInvalidName)
	}
	return nil
}

func checkSchema(schema string) error {
	if len(schema) > MaxSchemaBytes {
		return fail(KindBadRequest, "schema too large", nil)
	}
	if !gjson.Valid(schema) {
		return fail(KindBadRequest, "invalid schema", nil)
	}
	return nil
}

// decode reads an optional base64 field. Empty input is nil.
func decode(field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fail(KindBadRequest, "invalid "+field, err)
	}
	return data, nil
}
