package events

import (
	"context"
	"sync"
)

// MemoryPublisher records events in memory for tests and for running without
// a broker.
type MemoryPublisher struct {
	mu        sync.Mutex
	published []Envelope
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, eventType Type, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, Envelope{Type: eventType, Key: key, Payload: payload})
	return nil
}

// Published returns a copy of everything published so far.
func (p *MemoryPublisher) Published() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Envelope{}, p.published...)
}
