package verification

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"supervision/pkg/platform/circuit"
)

var breakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "supervision_face_comparison_breaker_open",
	Help: "1 while the face comparison circuit breaker is open, else 0",
})

// ResilienceConfig parameterises the retry and circuit-breaker wrapping of
// the raw comparison call.
type ResilienceConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	FailureRate    float64
	Window         int
	Cooldown       time.Duration
}

// ResilientComparer decorates a Comparer with bounded retry and a circuit
// breaker keyed to the comparison operation. The breaker is process-wide
// shared state consulted on every call.
//
// Failure accounting:
//   - ErrNoFaceDetected is benign: no retry, no breaker failure.
//   - Context cancellation or timeout counts as a breaker failure,
//     never as NO_FACE_DETECTED.
//   - Any other error is retried with exponential backoff; the final outcome
//     of the attempt run is what the breaker records.
type ResilientComparer struct {
	inner   Comparer
	breaker *circuit.Breaker
	cfg     ResilienceConfig
	log     *log.Logger
}

// NewResilientComparer wraps inner with retry and circuit breaking.
func NewResilientComparer(inner Comparer, cfg ResilienceConfig, logger *log.Logger) *ResilientComparer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	breaker := circuit.New("face-comparison",
		circuit.WithFailureRate(cfg.FailureRate, cfg.Window),
		circuit.WithCooldown(cfg.Cooldown),
		circuit.WithSuccessThreshold(1),
	)
	return &ResilientComparer{inner: inner, breaker: breaker, cfg: cfg, log: logger}
}

// BreakerState exposes the breaker for observability and tests.
func (r *ResilientComparer) BreakerState() circuit.State {
	return r.breaker.State()
}

// Compare runs the wrapped comparison with retry, gated by the breaker.
func (r *ResilientComparer) Compare(ctx context.Context, referenceKey, snapshotKey string) (Comparison, error) {
	if !r.breaker.Allow() {
		return Comparison{}, ErrCircuitOpen
	}

	var result Comparison
	operation := func() error {
		cmp, err := r.inner.Compare(ctx, referenceKey, snapshotKey)
		if err != nil {
			if errors.Is(err, ErrNoFaceDetected) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = cmp
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.InitialBackoff
	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.cfg.MaxAttempts-1)), ctx))

	switch {
	case err == nil:
		r.recordSuccess()
		return result, nil
	case errors.Is(err, ErrNoFaceDetected):
		// Benign: the service answered, there was just no face to compare.
		r.recordSuccess()
		return Comparison{}, err
	default:
		r.recordFailure()
		return Comparison{}, err
	}
}

func (r *ResilientComparer) recordSuccess() {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		breakerOpen.Set(0)
		if r.log != nil {
			r.log.Printf("face comparison circuit closed")
		}
	}
}

func (r *ResilientComparer) recordFailure() {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		breakerOpen.Set(1)
		if r.log != nil {
			r.log.Printf("WARN face comparison circuit opened")
		}
	}
}
