package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervision/pkg/platform/circuit"
)

// flakyComparer fails a set number of times before succeeding.
type flakyComparer struct {
	failures int
	calls    int
	err      error
}

func (c *flakyComparer) Compare(context.Context, string, string) (Comparison, error) {
	c.calls++
	if c.calls <= c.failures {
		return Comparison{}, c.err
	}
	return Comparison{FaceMatchFound: true, Similarity: 95}, nil
}

func testConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		FailureRate:    0.5,
		Window:         4,
		Cooldown:       time.Hour,
	}
}

func TestResilientComparer_RetriesTransientFailures(t *testing.T) {
	inner := &flakyComparer{failures: 2, err: errors.New("connection reset")}
	rc := NewResilientComparer(inner, testConfig(), nil)

	cmp, err := rc.Compare(context.Background(), "ref", "snap")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 95.0, cmp.Similarity)
	assert.Equal(t, circuit.StateClosed, rc.BreakerState())
}

func TestResilientComparer_NoFaceIsNotRetried(t *testing.T) {
	inner := &flakyComparer{failures: 10, err: ErrNoFaceDetected}
	rc := NewResilientComparer(inner, testConfig(), nil)

	_, err := rc.Compare(context.Background(), "ref", "snap")
	require.ErrorIs(t, err, ErrNoFaceDetected)
	assert.Equal(t, 1, inner.calls)
	// Benign condition never trips the breaker.
	assert.Equal(t, circuit.StateClosed, rc.BreakerState())
}

func TestResilientComparer_SustainedFailureOpensCircuit(t *testing.T) {
	inner := &flakyComparer{failures: 1000, err: errors.New("service down")}
	rc := NewResilientComparer(inner, testConfig(), nil)

	// Enough failed attempt-runs to fill the breaker window.
	for i := 0; i < 5; i++ {
		_, err := rc.Compare(context.Background(), "ref", "snap")
		require.Error(t, err)
	}
	assert.Equal(t, circuit.StateOpen, rc.BreakerState())

	// Fast-fail without touching the service.
	callsBefore := inner.calls
	_, err := rc.Compare(context.Background(), "ref", "snap")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, callsBefore, inner.calls)
}

func TestResilientComparer_CancellationCountsAsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakyComparer{failures: 1000, err: errors.New("slow")}
	cfg := testConfig()
	cfg.Window = 2
	rc := NewResilientComparer(inner, cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := rc.Compare(ctx, "ref", "snap")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNoFaceDetected)
	}
	assert.Equal(t, circuit.StateOpen, rc.BreakerState())
}
