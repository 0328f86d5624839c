package offender

import (
	"context"
	"sync"
	"time"

	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
)

// InMemory is the offender store for unit tests and local runs. CRN
// uniqueness is enforced against active (non-INACTIVE) offenders only, same
// as the partial unique index in postgres.
type InMemory struct {
	mu        sync.RWMutex
	offenders map[id.OffenderID]*models.Offender
}

func NewInMemory() *InMemory {
	return &InMemory{offenders: make(map[id.OffenderID]*models.Offender)}
}

func (s *InMemory) Create(_ context.Context, o *models.Offender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.offenders {
		if existing.CRN == o.CRN && existing.Status != models.StatusInactive {
			return sentinel.ErrConflict
		}
	}
	cp := *o
	s.offenders[o.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, offenderID id.OffenderID) (*models.Offender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offenders[offenderID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, o *models.Offender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offenders[o.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *o
	s.offenders[o.ID] = &cp
	return nil
}

func (s *InMemory) List(_ context.Context, limit, offset int) ([]*models.Offender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*models.Offender, 0, len(s.offenders))
	for _, o := range s.offenders {
		cp := *o
		all = append(all, &cp)
	}
	sortByCreatedAt(all)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// DueCandidates returns VERIFIED offenders whose schedule (firstCheckin plus
// an integer multiple of the interval) lands in [from, to).
//
// Deliberately, this does NOT exclude offenders who already have an open
// check-in due outside the queried window; duplicate suppression across
// windows is the caller's responsibility.
func (s *InMemory) DueCandidates(_ context.Context, from, to time.Time) ([]*models.Offender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Offender
	for _, o := range s.offenders {
		if o.Status != models.StatusVerified {
			continue
		}
		if next := o.NextDueAfter(from); next.Before(to) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func sortByCreatedAt(offenders []*models.Offender) {
	for i := 1; i < len(offenders); i++ {
		for j := i; j > 0 && offenders[j].CreatedAt.Before(offenders[j-1].CreatedAt); j-- {
			offenders[j], offenders[j-1] = offenders[j-1], offenders[j]
		}
	}
}
