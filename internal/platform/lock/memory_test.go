package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider_Exclusion(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	ok, err := p.TryAcquire(ctx, "sweep:expire", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquire while held fails without error.
	ok, err = p.TryAcquire(ctx, "sweep:expire", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different name is an independent lease.
	ok, err = p.TryAcquire(ctx, "sweep:remind", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.Release(ctx, "sweep:expire"))
	ok, err = p.TryAcquire(ctx, "sweep:expire", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryProvider_LeaseExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	p := NewMemoryProvider().WithClock(func() time.Time { return now })

	ok, err := p.TryAcquire(ctx, "sweep:create", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = p.TryAcquire(ctx, "sweep:create", time.Minute)
	assert.False(t, ok)

	// Lease expires without an explicit release.
	now = now.Add(31 * time.Second)
	ok, err = p.TryAcquire(ctx, "sweep:create", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
