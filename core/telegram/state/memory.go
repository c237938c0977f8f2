package state

import (
	"context"
	"sync"
)

type memoryManager[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[T]
}

// NewMemoryManager returns a Manager backed by a map.
func NewMemoryManager[T any]() Manager[T] {
	return &memoryManager[T]{sessions: make(map[int64]Session[T])}
}

func (m *memoryManager[T]) Get(_ context.Context, userID int64) (Session[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	return Session[T]{State: StateIdle}, nil
}

func (m *memoryManager[T]) Set(_ context.Context, userID int64, s Session[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
	return nil
}

func (m *memoryManager[T]) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *memoryManager[T]) InProgress(_ context.Context, userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID].Active()
}
