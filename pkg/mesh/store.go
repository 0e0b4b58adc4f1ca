package mesh

import "sync"

// Store interns meshes by content identity so that identical geometry is
// held once per process. Entries are never removed.
type Store struct {
	mu   sync.RWMutex
	byID map[ID]*Mesh
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[ID]*Mesh)}
}

// Put registers m and returns its identity together with the canonical
// instance for that content, which is m itself on first sight.
func (s *Store) Put(m *Mesh) (ID, *Mesh) {
	id := m.Hash()
	return id, s.PutID(id, m)
}

// PutID is Put for callers that already know the identity of m.
func (s *Store) PutID(id ID, m *Mesh) *Mesh {
	s.mu.RLock()
	existing, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return existing
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byID[id]; ok {
		return existing
	}
	s.byID[id] = m
	return m
}

// Get returns the mesh with the given identity.
func (s *Store) Get(id ID) (*Mesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	return m, ok
}

// Len returns the number of distinct meshes held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
