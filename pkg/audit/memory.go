package audit

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage keeps events in process memory. Useful in tests and local
// development; contents are lost on restart.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
	err    error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Store(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything stored so far, oldest first.
func (m *MemoryStorage) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

// FailWith makes subsequent Store calls return err. Pass nil to recover.
func (m *MemoryStorage) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
