package player

import "sync"

type stateKey struct {
	device    string
	component Component
}

// Store holds the last known value of each (device, component) pair.
// Writes are last-writer-wins in arrival order.
type Store struct {
	mu     sync.RWMutex
	values map[stateKey]any
}

// NewStore creates an empty component store.
func NewStore() *Store {
	return &Store{values: map[stateKey]any{}}
}

// Set records value for the pair.
func (s *Store) Set(deviceID string, c Component, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[stateKey{device: deviceID, component: c}] = value
}

// Get returns the recorded value for the pair.
func (s *Store) Get(deviceID string, c Component) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[stateKey{device: deviceID, component: c}]
	return v, ok
}
