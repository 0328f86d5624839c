package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is an in-process lease lock for tests and single-instance
// deployments. Leases expire by timestamp, mirroring the Redis semantics.
type MemoryProvider struct {
	mu     sync.Mutex
	leases map[string]time.Time
	now    func() time.Time
}

// NewMemoryProvider constructs an in-process lock provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{leases: make(map[string]time.Time), now: time.Now}
}

// WithClock overrides the time source; used by tests to expire leases.
func (p *MemoryProvider) WithClock(now func() time.Time) *MemoryProvider {
	p.now = now
	return p
}

func (p *MemoryProvider) TryAcquire(_ context.Context, name string, lease time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if until, held := p.leases[name]; held && p.now().Before(until) {
		return false, nil
	}
	p.leases[name] = p.now().Add(lease)
	return true, nil
}

func (p *MemoryProvider) Release(_ context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.leases, name)
	return nil
}
