package coach

import (
	"sync"

	"nutricoach"
)

// StateStore holds per-session coach state. The in-memory map is the
// default; a persistent backend can replace it without touching the
// coordinator. Stores guard their own map, but stage operations against
// one session id must still be serialized by the caller: the returned
// state is mutated in place.
type StateStore interface {
	Get(id string) (*nutricoach.CoachState, bool)
	Put(id string, state *nutricoach.CoachState)
	Delete(id string)
}

// MemoryStore is a process-lifetime StateStore. Sessions vanish on
// restart; that is accepted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*nutricoach.CoachState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*nutricoach.CoachState)}
}

func (m *MemoryStore) Get(id string) (*nutricoach.CoachState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	return state, ok
}

func (m *MemoryStore) Put(id string, state *nutricoach.CoachState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = state
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
