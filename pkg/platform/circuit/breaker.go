// Package circuit provides a process-wide circuit breaker for calls to
// external services. The breaker is shared mutable state read and written on
// every call and is safe for concurrent use.
package circuit

import (
	"sync"
	"time"
)

// State is the observable breaker state.
type State string

const (
	// StateClosed: calls flow to the primary.
	StateClosed State = "closed"
	// StateOpen: calls are rejected fast until the cool-down elapses.
	StateOpen State = "open"
	// StateHalfOpen: the cool-down elapsed; trial calls are let through and
	// their outcomes decide whether the breaker closes or reopens.
	StateHalfOpen State = "half_open"
)

// StateChange reports transitions triggered by recording an outcome, so
// callers can log or count them exactly once.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker tracks failures of a named operation. It opens after either a run
// of consecutive failures or a failure rate over a sliding window of recent
// outcomes, rejects calls while open, and closes again after enough trial
// successes once the cool-down has elapsed.
type Breaker struct {
	name string

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	window       []bool // true = failure; capped at windowSize
	openedAt     time.Time

	failureThreshold int
	successThreshold int
	failureRate      float64
	windowSize       int
	cooldown         time.Duration
	now              func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets the consecutive-failure count that opens the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) { b.failureThreshold = n }
}

// WithSuccessThreshold sets the trial-success count that closes an open circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) { b.successThreshold = n }
}

// WithFailureRate opens the circuit when the failure rate over the last
// `window` outcomes reaches `rate`. The window must fill before the rate is
// consulted, so a cold breaker is not opened by its first failure.
func WithFailureRate(rate float64, window int) Option {
	return func(b *Breaker) {
		b.failureRate = rate
		b.windowSize = window
	}
}

// WithCooldown sets how long the circuit stays open before trial calls are
// allowed through.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) { b.cooldown = d }
}

// WithClock overrides the time source; used by tests to step the cool-down.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a closed breaker for the named operation.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
		failureRate:      0.5,
		windowSize:       20,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the operation name the breaker guards.
func (b *Breaker) Name() string { return b.name }

// State returns the observable state, surfacing half-open once the cool-down
// of an open circuit has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observedStateLocked()
}

// IsOpen reports whether calls should currently be rejected. A half-open
// breaker is not "open": trial calls may proceed.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observedStateLocked() == StateOpen
}

// Allow reports whether a call may proceed. While open it returns false until
// the cool-down elapses, after which trial calls are allowed (half-open).
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observedStateLocked() != StateOpen
}

func (b *Breaker) observedStateLocked() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// RecordFailure records a failed call. It returns true when subsequent calls
// should be rejected, and the state change (if any) this outcome caused.
// A failed trial call reopens the circuit and restarts the cool-down.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pushOutcomeLocked(true)
	b.failureCount++
	b.successCount = 0

	switch b.observedStateLocked() {
	case StateOpen:
		return true, StateChange{}
	case StateHalfOpen:
		// Trial failed: restart the cool-down without reporting a fresh open.
		b.openedAt = b.now()
		return true, StateChange{}
	}

	if b.failureCount >= b.failureThreshold || b.windowFailureRateLocked() >= b.failureRate {
		b.state = StateOpen
		b.openedAt = b.now()
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess records a successful call. It returns true when the primary
// path is (still or again) usable, and the state change (if any).
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pushOutcomeLocked(false)

	if b.state == StateOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.resetLocked()
			return true, StateChange{Closed: true}
		}
		return false, StateChange{}
	}

	b.failureCount = 0
	return true, StateChange{}
}

// Reset force-closes the breaker and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *Breaker) resetLocked() {
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.window = b.window[:0]
}

func (b *Breaker) pushOutcomeLocked(failed bool) {
	if b.windowSize <= 0 {
		return
	}
	b.window = append(b.window, failed)
	if len(b.window) > b.windowSize {
		b.window = b.window[1:]
	}
}

// windowFailureRateLocked returns the failure rate once the window is full,
// and 0 before that.
func (b *Breaker) windowFailureRateLocked() float64 {
	if b.windowSize <= 0 || len(b.window) < b.windowSize {
		return 0
	}
	failures := 0
	for _, failed := range b.window {
		if failed {
			failures++
		}
	}
	return float64(failures) / float64(len(b.window))
}
