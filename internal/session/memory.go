package session

import (
	"context"
	"sync"
	"time"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
)

// MemoryStore keeps sessions in process. Entries older than ttl are treated
// as missing; a zero ttl keeps them forever.
type MemoryStore struct {
	mu    sync.Mutex
	items map[int64]memEntry
	ttl   time.Duration
	now   func() time.Time
}

type memEntry struct {
	s       *Session
	expires time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{items: make(map[int64]memEntry), ttl: ttl, now: time.Now}
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, userID)
		return nil, ErrNotFound
	}
	return clone(e.s), nil
}

// Set stores a copy of s and restarts its ttl.
func (m *MemoryStore) Set(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{s: clone(s)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.items[s.UserID] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.items, userID)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func clone(s *Session) *Session {
	c := *s
	c.Cart = *s.Cart.Clone()
	c.AIHistory = append([]assistant.Turn(nil), s.AIHistory...)
	return &c
}
