package store

import (
	"context"
	"sync"

	"supervision/internal/audit"
)

// InMemory is the audit sink for unit tests. It counts batch calls so tests
// can assert the one-transaction-per-batch discipline.
type InMemory struct {
	mu         sync.RWMutex
	events     []audit.Event
	batchCalls int
	// FailWrites makes every append fail, for best-effort contract tests.
	FailWrites error
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) AppendBatch(_ context.Context, events []audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.batchCalls++
	s.events = append(s.events, events...)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *InMemory) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...)
}

// BatchCalls returns how many batch writes occurred.
func (s *InMemory) BatchCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batchCalls
}
