package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager maps session IDs to Stores. Idle sessions are dropped after ttl.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager expiring sessions idle for longer than ttl.
// A zero ttl keeps sessions forever.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the store for id. An empty or unknown id gets a fresh session;
// the returned id is the one the caller should keep using.
func (m *Manager) Get(id string) (string, *Store) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok && !m.expired(s) {
		return id, s
	}

	m.sweep()
	id = uuid.NewString()
	s := newStore(m.now)
	m.stores[id] = s
	return id, s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

func (m *Manager) expired(s *Store) bool {
	return m.ttl > 0 && m.now().Sub(s.idleSince()) > m.ttl
}

func (m *Manager) sweep() {
	for id, s := range m.stores {
		if m.expired(s) {
			delete(m.stores, id)
		}
	}
}
