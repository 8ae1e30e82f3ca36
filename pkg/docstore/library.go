package docstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
)

const (
	uiFile    = "ui.json"
	coverFile = "cover.png"
	metaFile  = "meta.txt"

	// EmptySchema is returned for apps that never saved a UI schema.
	EmptySchema = `{"components":[]}`
)

// Library stores app files on a Storage using the versioned layout.
type Library struct {
	store Storage
}

func NewLibrary(store Storage) *Library {
	return &Library{store: store}
}

func appDir(owner, name string) string { return path.Join(owner, name) }

func versionDir(owner, name string, version int) string {
	return path.Join(owner, name, strconv.Itoa(version))
}

// WorkbookKey is <owner>/<name>/<version>/<name>.xlsx.
func WorkbookKey(owner, name string, version int) string {
	return path.Join(versionDir(owner, name, version), name+".xlsx")
}

func UIKey(owner, name string, version int) string {
	return path.Join(versionDir(owner, name, version), uiFile)
}

func CoverKey(owner, name string, version int) string {
	return path.Join(versionDir(owner, name, version), coverFile)
}

func (l *Library) SaveWorkbook(ctx context.Context, owner, name string, version int, data []byte) error {
	return l.store.Put(ctx, WorkbookKey(owner, name, version), data)
}

// CopyWorkbook copies the workbook of version from into version to.
func (l *Library) CopyWorkbook(ctx context.Context, owner, name string, from, to int) error {
	return l.store.Copy(ctx, WorkbookKey(owner, name, from), WorkbookKey(owner, name, to))
}

// WorkbookPath materialises the workbook on disk. A missing workbook is ErrNotFound.
func (l *Library) WorkbookPath(ctx context.Context, owner, name string, version int) (string, error) {
	return l.store.LocalPath(ctx, WorkbookKey(owner, name, version))
}

// SaveUI writes schema for version and as the app-level fallback.
func (l *Library) SaveUI(ctx context.Context, owner, name string, version int, schema string) error {
	if err := l.store.Put(ctx, UIKey(owner, name, version), []byte(schema)); err != nil {
		return err
	}
	return l.store.Put(ctx, path.Join(appDir(owner, name), uiFile), []byte(schema))
}

// UI returns the schema of version, falling back to the app-level copy and
// then to EmptySchema. found reports whether a stored schema was used.
func (l *Library) UI(ctx context.Context, owner, name string, version int) (schema string, found bool, err error) {
	data, err := l.firstOf(ctx, UIKey(owner, name, version), path.Join(appDir(owner, name), uiFile))
	if errors.Is(err, ErrNotFound) {
		return EmptySchema, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// HasUI reports whether version or the app has a stored schema.
func (l *Library) HasUI(ctx context.Context, owner, name string, version int) (bool, error) {
	for _, key := range []string{UIKey(owner, name, version), path.Join(appDir(owner, name), uiFile)} {
		ok, err := l.store.Exists(ctx, key)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// SaveCover writes image for version and as the app-level fallback.
func (l *Library) SaveCover(ctx context.Context, owner, name string, version int, image []byte) error {
	if err := l.store.Put(ctx, path.Join(appDir(owner, name), coverFile), image); err != nil {
		return err
	}
	return l.store.Put(ctx, CoverKey(owner, name, version), image)
}

// Cover returns the image of version or the app-level fallback. No image is (nil, nil).
func (l *Library) Cover(ctx context.Context, owner, name string, version int) ([]byte, error) {
	data, err := l.firstOf(ctx, CoverKey(owner, name, version), path.Join(appDir(owner, name), coverFile))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}

// CarryCover copies the cover of version from (or the app-level one) into version to.
// It does nothing when the app has no cover.
func (l *Library) CarryCover(ctx context.Context, owner, name string, from, to int) error {
	for _, src := range []string{CoverKey(owner, name, from), path.Join(appDir(owner, name), coverFile)} {
		err := l.store.Copy(ctx, src, CoverKey(owner, name, to))
		if !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// WriteMeta records name, version and description next to the workbook.
func (l *Library) WriteMeta(ctx context.Context, owner, name string, version int, description string) error {
	meta := fmt.Sprintf("name=%s\nversion=%d\ndescription=%s\n", name, version, description)
	return l.store.Put(ctx, path.Join(versionDir(owner, name, version), metaFile), []byte(meta))
}

// DeleteApp removes every file of the app.
func (l *Library) DeleteApp(ctx context.Context, owner, name string) error {
	return l.store.DeleteDir(ctx, appDir(owner, name))
}

func (l *Library) firstOf(ctx context.Context, keys ...string) ([]byte, error) {
	for _, key := range keys {
		data, err := l.store.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return data, err
	}
	return nil, ErrNotFound
}
