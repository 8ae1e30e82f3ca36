package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, token string, rec Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[token]; ok && !m.expired(e) {
		return ErrTokenExists
	}
	e := memoryEntry{rec: rec}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.sessions[token] = e
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, token string) (Record, error) {
	m.mu.RLock()
	e, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return Record{}, ErrSessionNotFound
	}
	if m.expired(e) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return Record{}, ErrSessionNotFound
	}
	return e.rec, nil
}

func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
