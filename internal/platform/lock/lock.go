// Package lock provides lease-based mutual exclusion for work that multiple
// service instances may attempt concurrently, such as the scheduled sweeps.
package lock

import (
	"context"
	"time"
)

// Provider hands out named leases. TryAcquire never blocks: it returns false
// when another holder owns the lease. A lease expires on its own if the
// holder dies without releasing, so a crashed instance cannot wedge a sweep.
type Provider interface {
	TryAcquire(ctx context.Context, name string, lease time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}
