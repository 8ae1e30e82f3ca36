package catalog

import (
	"slices"
	"strings"
	"time"
)

// Role is a user's privilege level.
type Role string

const (
	RoleUser          Role = "user"
	RoleDeveloper     Role = "developer"
	RoleAdministrator Role = "administrator"
)

// ParseRole accepts the three role names. An empty string is RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleDeveloper:
		return RoleDeveloper, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	}
	return "", ErrInvalidRole
}

// User is an account that can log in.
type User struct {
	Name         string
	PasswordHash string
	Groups       []string
	Role         Role
}

// InGroup reports whether u belongs to group. Matching is exact.
func (u User) InGroup(group string) bool {
	return group != "" && slices.Contains(u.Groups, group)
}

// App is a published workbook. LatestVersion starts at 1.
type App struct {
	Owner         string
	Name          string
	LatestVersion int
	Description   string
	Public        bool
	AccessGroup   string
	UpdatedAt     time.Time
}

// Key returns "owner/name".
func (a App) Key() string { return AppKey(a.Owner, a.Name) }

func AppKey(owner, name string) string { return owner + "/" + name }

const maxNameLen = 128

// ValidName reports whether s is usable as a user, app or group name in storage paths:
// 1 to 128 characters from [A-Za-z0-9_.-] without "..".
func ValidName(s string) bool {
	if s == "" || len(s) > maxNameLen || strings.Contains(s, "..") {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}

// SplitGroups parses a comma separated group list, trimming blanks.
func SplitGroups(csv string) []string {
	var out []string
	for g := range strings.SplitSeq(csv, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
