package coordinator

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
)

// UserView is a user as listed to administrators.
type UserView struct {
	Name   string       `json:"name"`
	Groups []string     `json:"groups"`
	Role   catalog.Role `json:"role"`
}

// UpsertUserInput creates or replaces a user. Groups is comma separated.
type UpsertUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Groups   string `json:"groups"`
	Role     string `json:"role"`
}

// ListUsers returns every user. Administrators only.
func (c *Coordinator) ListUsers(ctx context.Context, token string) ([]UserView, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := c.requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := c.users.ListUsers(ctx)
	if err != nil {
		return nil, fail(KindInternal, reasonStorage, err)
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		u = c.policy.Resolve(u)
		groups := u.Groups
		if groups == nil {
			groups = []string{}
		}
		out = append(out, UserView{Name: u.Name, Groups: groups, Role: u.Role})
	}
	return out, nil
}

// UpsertUser creates or replaces a user. Administrators only. Roles other than
// user and developer are rejected; configured admins always end up as
// administrators.
func (c *Coordinator) UpsertUser(ctx context.Context, token string, in UpsertUserInput) error {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	if in.Username == "" || in.Password == "" {
		return fail(KindBadRequest, "username and password required", nil)
	}
	if !catalog.ValidName(in.Username) {
		return fail(KindBadRequest, "invalid username", catalog.ErrInvalidName)
	}
	role, err := catalog.ParseRole(in.Role)
	if err != nil || role == catalog.RoleAdministrator {
		return fail(KindBadRequest, "role must be user or developer", catalog.ErrInvalidRole)
	}

	hash, err := catalog.HashPassword(in.Password, c.cost)
	if err != nil {
		return fail(KindInternal, reasonInternal, err)
	}
	u := c.policy.Resolve(catalog.User{
		Name:         in.Username,
		PasswordHash: hash,
		Groups:       catalog.SplitGroups(in.Groups),
		Role:         role,
	})
	if err := c.users.PutUser(ctx, u); err != nil {
		return fail(KindInternal, reasonStorage, err)
	}
	c.log.InfoContext(ctx, "user saved", logger.Identity(u.Name), slog.String("by", caller.Name))
	return nil
}
