package catalog

import (
	"context"
	"embed"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sheetpool/pkg/pg"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations holds the goose migrations for PGStore, rooted at the SQL files.
var Migrations fs.FS = mustSub(migrationFiles, "migrations")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of *pgxpool.Pool used by PGStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// PGStore keeps the catalog in PostgreSQL.
type PGStore struct {
	db DB
}

func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const (
	userColumns = `name, password_hash, groups, role`
	appColumns  = `owner, name, latest_version, description, public, access_group, updated_at`
)

func (s *PGStore) GetUser(ctx context.Context, name string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
	u, err := scanUser(row)
	if pg.IsNotFoundError(err) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *PGStore) PutUser(ctx context.Context, u User) error {
	groups := u.Groups
	if groups == nil {
		groups = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (name, password_hash, groups, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    groups = EXCLUDED.groups,
		    role = EXCLUDED.role,
		    updated_at = now()`,
		u.Name, u.PasswordHash, groups, string(u.Role))
	return err
}

func (s *PGStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PGStore) GetApp(ctx context.Context, owner, name string) (App, error) {
	row := s.db.QueryRow(ctx, `SELECT `+appColumns+` FROM apps WHERE owner = $1 AND name = $2`, owner, name)
	a, err := scanApp(row)
	if pg.IsNotFoundError(err) {
		return App{}, ErrAppNotFound
	}
	return a, err
}

func (s *PGStore) CreateApp(ctx context.Context, a App) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO apps (owner, name, latest_version, description, public, access_group)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.Owner, a.Name, a.LatestVersion, a.Description, a.Public, a.AccessGroup)
	if pg.IsDuplicateKeyError(err) {
		return ErrAppExists
	}
	return err
}

func (s *PGStore) PutApp(ctx context.Context, a App) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO apps (owner, name, latest_version, description, public, access_group)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner, name) DO UPDATE
		SET latest_version = EXCLUDED.latest_version,
		    description = EXCLUDED.description,
		    public = EXCLUDED.public,
		    access_group = EXCLUDED.access_group,
		    updated_at = now()`,
		a.Owner, a.Name, a.LatestVersion, a.Description, a.Public, a.AccessGroup)
	return err
}

func (s *PGStore) ListApps(ctx context.Context) ([]App, error) {
	rows, err := s.db.Query(ctx, `SELECT `+appColumns+` FROM apps ORDER BY owner, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []App
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteApp(ctx context.Context, owner, name string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM apps WHERE owner = $1 AND name = $2`, owner, name)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.Name, &u.PasswordHash, &u.Groups, &role); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

func scanApp(row pgx.Row) (App, error) {
	var a App
	err := row.Scan(&a.Owner, &a.Name, &a.LatestVersion, &a.Description, &a.Public, &a.AccessGroup, &a.UpdatedAt)
	if err != nil {
		return App{}, err
	}
	return a, nil
}

// NewFromConfig returns the store named in cfg. db is only used by the postgres store.
func NewFromConfig(cfg Config, db DB) (Store, error) {
	switch cfg.Store {
	case "", StoreMemory:
		return NewMemoryStore(), nil
	case StorePostgres:
		if db == nil {
			return nil, errors.Join(ErrUnknownStore, errors.New("postgres store needs a pool"))
		}
		return NewPGStore(db), nil
	}
	return nil, ErrUnknownStore
}
