package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/sheetpool/pkg/logger"
)

const (
	defaultAdmin         = "admin"
	defaultAdminPassword = "admin"
	adminGroup           = "admin"
)

// SeedUser is a user declared in the seed file.
type SeedUser struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Groups   []string `yaml:"groups"`
	Role     string   `yaml:"role"`
}

// SeedFile is the YAML document read by LoadSeed.
type SeedFile struct {
	Users  []SeedUser `yaml:"users"`
	Admins []string   `yaml:"admins"`
}

// LoadSeed reads path. A missing file yields the default admin/admin administrator.
// Empty user or admin lists are filled with the same defaults.
func LoadSeed(path string) (SeedFile, error) {
	var seed SeedFile
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return SeedFile{}, errors.Join(ErrSeed, err)
	default:
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return SeedFile{}, errors.Join(ErrSeed, fmt.Errorf("parse %s: %w", path, err))
		}
	}
	seed.applyDefaults()
	return seed, nil
}

func (s *SeedFile) applyDefaults() {
	if len(s.Users) == 0 {
		s.Users = []SeedUser{{Username: defaultAdmin, Password: defaultAdminPassword}}
	}
	if len(s.Admins) == 0 {
		s.Admins = []string{defaultAdmin}
	}
}

// IsAdmin reports whether name is listed under admins.
func (s SeedFile) IsAdmin(name string) bool {
	return slices.Contains(s.Admins, name)
}

func (s SeedFile) password(name string) (string, bool) {
	for _, u := range s.Users {
		if u.Username == name {
			return u.Password, true
		}
	}
	return "", false
}

// Seed applies seed to store. Declared admins are created or promoted to
// administrator and get the password from the users list, or "admin" when they
// have none. Other declared users are created when missing and left untouched otherwise.
func Seed(ctx context.Context, store Store, seed SeedFile, cost int, log *slog.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("catalog"))

	for _, name := range seed.Admins {
		pass, ok := seed.password(name)
		if !ok {
			pass = defaultAdminPassword
		}

		u, err := store.GetUser(ctx, name)
		switch {
		case errors.Is(err, ErrUserNotFound):
			u = User{Name: name, Groups: []string{adminGroup}}
		case err != nil:
			return errors.Join(ErrSeed, err)
		}
		u.Role = RoleAdministrator
		if pass != "" {
			if u.PasswordHash, err = HashPassword(pass, cost); err != nil {
				return errors.Join(ErrSeed, err)
			}
		}
		if err := store.PutUser(ctx, u); err != nil {
			return errors.Join(ErrSeed, err)
		}
		log.InfoContext(ctx, "administrator seeded", logger.Identity(name))
	}

	for _, su := range seed.Users {
		if su.Username == "" || seed.IsAdmin(su.Username) {
			continue
		}
		_, err := store.GetUser(ctx, su.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return errors.Join(ErrSeed, err)
		}
		role, err := ParseRole(su.Role)
		if err != nil || role == RoleAdministrator {
			return errors.Join(ErrSeed, ErrInvalidRole, fmt.Errorf("user %q", su.Username))
		}
		hash, err := HashPassword(su.Password, cost)
		if err != nil {
			return errors.Join(ErrSeed, err)
		}
		u := User{Name: su.Username, PasswordHash: hash, Groups: slices.Clone(su.Groups), Role: role}
		if err := store.PutUser(ctx, u); err != nil {
			return errors.Join(ErrSeed, err)
		}
		log.InfoContext(ctx, "user seeded", logger.Identity(su.Username))
	}
	return nil
}
