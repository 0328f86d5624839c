package store

import (
	"context"
	"sync"
	"time"

	"supervision/internal/checkin/models"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
)

// InMemory is the check-in store for unit tests and local runs.
type InMemory struct {
	mu       sync.RWMutex
	checkins map[id.CheckinID]*models.Checkin
}

func NewInMemory() *InMemory {
	return &InMemory{checkins: make(map[id.CheckinID]*models.Checkin)}
}

func (s *InMemory) Create(_ context.Context, c *models.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.checkins[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, checkinID id.CheckinID) (*models.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkins[checkinID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, c *models.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkins[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.checkins[c.ID] = &cp
	return nil
}

func (s *InMemory) ListByOffender(_ context.Context, offenderID id.OffenderID, limit, offset int) ([]*models.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Checkin
	for _, c := range s.checkins {
		if c.OffenderID == offenderID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByDueDate(out)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ListOpenDueBefore returns CREATED and SUBMITTED check-ins with a due date
// strictly before the cutoff.
func (s *InMemory) ListOpenDueBefore(_ context.Context, cutoff time.Time) ([]*models.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Checkin
	for _, c := range s.checkins {
		if c.Status.IsOpen() && c.DueDate.Before(cutoff) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByDueDate(out)
	return out, nil
}

// ListCreatedDueBetween returns CREATED check-ins with a due date in
// [from, to); these are the reminder candidates.
func (s *InMemory) ListCreatedDueBetween(_ context.Context, from, to time.Time) ([]*models.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Checkin
	for _, c := range s.checkins {
		if c.Status == models.StatusCreated && !c.DueDate.Before(from) && c.DueDate.Before(to) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByDueDate(out)
	return out, nil
}

// ExistsForOffenderDue reports whether a check-in already exists for the
// offender at exactly that due date, in any status.
func (s *InMemory) ExistsForOffenderDue(_ context.Context, offenderID id.OffenderID, dueDate time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.checkins {
		if c.OffenderID == offenderID && c.DueDate.Equal(dueDate) {
			return true, nil
		}
	}
	return false, nil
}

func sortByDueDate(checkins []*models.Checkin) {
	for i := 1; i < len(checkins); i++ {
		for j := i; j > 0 && checkins[j].DueDate.Before(checkins[j-1].DueDate); j-- {
			checkins[j], checkins[j-1] = checkins[j-1], checkins[j]
		}
	}
}
