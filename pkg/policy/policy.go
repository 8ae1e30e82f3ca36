// Package policy answers access questions about catalog users and apps.
package policy

import (
	"slices"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
)

// Policy decides what a user may do with an app. The zero value knows no
// configured administrators and relies on stored roles alone.
type Policy struct {
	admins map[string]struct{}
}

// New returns a Policy where every name in admins is an administrator
// regardless of its stored role.
func New(admins ...string) *Policy {
	p := &Policy{admins: make(map[string]struct{}, len(admins))}
	for _, name := range admins {
		if name != "" {
			p.admins[name] = struct{}{}
		}
	}
	return p
}

// Resolve returns u with the administrator role forced for configured admins.
func (p *Policy) Resolve(u catalog.User) catalog.User {
	if _, ok := p.admins[u.Name]; ok {
		u.Role = catalog.RoleAdministrator
	}
	return u
}

// IsAdmin reports whether u is a configured admin or holds the administrator role.
func (p *Policy) IsAdmin(u catalog.User) bool {
	_, ok := p.admins[u.Name]
	return ok || u.Role == catalog.RoleAdministrator
}

// CanAccess reports whether u may open app: public apps, owners, members of
// the app's access group and administrators.
func (p *Policy) CanAccess(u catalog.User, app catalog.App) bool {
	switch {
	case app.Public, app.Owner == u.Name:
		return true
	case app.AccessGroup != "" && u.InGroup(app.AccessGroup):
		return true
	}
	return p.IsAdmin(u)
}

// CanManage reports whether u may modify or delete app.
func (p *Policy) CanManage(u catalog.User, app catalog.App) bool {
	return app.Owner == u.Name || p.IsAdmin(u)
}

// Admins returns the configured administrator names, sorted.
func (p *Policy) Admins() []string {
	out := make([]string, 0, len(p.admins))
	for name := range p.admins {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
