package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps the catalog in process memory. Records are copied on the way in and out.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
	apps  map[string]App
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]User),
		apps:  make(map[string]App),
		now:   time.Now,
	}
}

func (m *MemoryStore) GetUser(ctx context.Context, name string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) PutUser(ctx context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Name] = cloneUser(u)
	return nil
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, cloneUser(u))
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b User) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryStore) GetApp(ctx context.Context, owner, name string) (App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.apps[AppKey(owner, name)]
	if !ok {
		return App{}, ErrAppNotFound
	}
	return a, nil
}

func (m *MemoryStore) CreateApp(ctx context.Context, a App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[a.Key()]; ok {
		return ErrAppExists
	}
	a.UpdatedAt = m.now().UTC()
	m.apps[a.Key()] = a
	return nil
}

func (m *MemoryStore) PutApp(ctx context.Context, a App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.UpdatedAt = m.now().UTC()
	m.apps[a.Key()] = a
	return nil
}

func (m *MemoryStore) ListApps(ctx context.Context) ([]App, error) {
	m.mu.RLock()
	out := make([]App, 0, len(m.apps))
	for _, a := range m.apps {
		out = append(out, a)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b App) int { return strings.Compare(a.Key(), b.Key()) })
	return out, nil
}

func (m *MemoryStore) DeleteApp(ctx context.Context, owner, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.apps, AppKey(owner, name))
	return nil
}

func cloneUser(u User) User {
	u.Groups = slices.Clone(u.Groups)
	return u
}
