// Package sweep drives the scheduled lifecycle jobs: creating due check-ins,
// expiring overdue ones and sending reminders. Every service instance runs a
// runner; a lease-based lock per job makes the cluster act as one scheduler.
package sweep

import (
	"context"
	"log"
	"time"

	"supervision/internal/platform/lock"
)

// Lifecycle is the check-in service surface the sweeps drive.
type Lifecycle interface {
	CreateDueCheckins(ctx context.Context, from, to time.Time) (int, error)
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int, error)
	SendReminders(ctx context.Context, from, to time.Time) (int, error)
}

// Lock names, shared across instances.
const (
	lockCreate = "sweep:create"
	lockExpire = "sweep:expire"
	lockRemind = "sweep:remind"
)

// Config tunes the runner cadence and look-ahead windows.
type Config struct {
	// Interval is the tick between sweep cycles.
	Interval time.Duration
	// Lease is the lock lease per job; it should exceed a job's worst-case
	// runtime but stay short enough that a crashed holder frees up quickly.
	Lease time.Duration
	// CreateAhead is how far past the sweep time check-ins get scheduled.
	CreateAhead time.Duration
	// ReminderLead is how far before the due date reminders go out.
	ReminderLead time.Duration
}

// Runner periodically executes the three sweep jobs.
type Runner struct {
	lifecycle Lifecycle
	locks     lock.Provider
	cfg       Config
	log       *log.Logger
	clock     func() time.Time

	// Advancing marks keep the create/remind windows contiguous across
	// ticks on this instance. The jobs themselves are idempotent, so marks
	// lagging behind another instance's progress costs duplicate work, not
	// correctness.
	createdThrough  time.Time
	remindedThrough time.Time
}

type Option func(r *Runner)

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.clock = clock }
}

func New(lifecycle Lifecycle, locks lock.Provider, cfg Config, logger *log.Logger, opts ...Option) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Lease <= 0 {
		cfg.Lease = cfg.Interval
	}
	r := &Runner{
		lifecycle: lifecycle,
		locks:     locks,
		cfg:       cfg,
		log:       logger,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks until the context is cancelled. The first sweep happens after one
// interval, not immediately, so a rolling deploy does not stampede.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one cycle of all three jobs. Each job takes its own lock; losing
// a lock means another instance is on it, and this cycle skips the job.
func (r *Runner) Sweep(ctx context.Context) {
	now := r.clock()

	r.withLock(ctx, lockCreate, func() {
		from := r.createdThrough
		if from.IsZero() {
			from = now
			r.createdThrough = from
		}
		to := now.Add(r.cfg.CreateAhead)
		if !to.After(from) {
			return
		}
		created, err := r.lifecycle.CreateDueCheckins(ctx, from, to)
		if err != nil {
			r.warnf("create due checkins: %v", err)
			return
		}
		r.createdThrough = to
		if created > 0 {
			r.infof("scheduled %d checkins through %s", created, to.Format(time.RFC3339))
		}
	})

	r.withLock(ctx, lockExpire, func() {
		expired, err := r.lifecycle.ExpireOverdue(ctx, now)
		if err != nil {
			r.warnf("expire overdue checkins: %v", err)
			return
		}
		if expired > 0 {
			r.infof("expired %d overdue checkins", expired)
		}
	})

	r.withLock(ctx, lockRemind, func() {
		from := r.remindedThrough
		if from.IsZero() {
			from = now
			r.remindedThrough = from
		}
		to := now.Add(r.cfg.ReminderLead)
		if !to.After(from) {
			return
		}
		sent, err := r.lifecycle.SendReminders(ctx, from, to)
		if err != nil {
			r.warnf("send reminders: %v", err)
			return
		}
		r.remindedThrough = to
		if sent > 0 {
			r.infof("sent %d checkin reminders", sent)
		}
	})
}

func (r *Runner) withLock(ctx context.Context, name string, job func()) {
	acquired, err := r.locks.TryAcquire(ctx, name, r.cfg.Lease)
	if err != nil {
		r.warnf("acquire %s: %v", name, err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := r.locks.Release(ctx, name); err != nil {
			r.warnf("release %s: %v", name, err)
		}
	}()
	job()
}

func (r *Runner) warnf(format string, args ...any) {
	if r.log != nil {
		r.log.Printf("WARN sweep: "+format, args...)
	}
}

func (r *Runner) infof(format string, args ...any) {
	if r.log != nil {
		r.log.Printf("sweep: "+format, args...)
	}
}
