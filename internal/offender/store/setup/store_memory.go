package setup

import (
	"context"
	"sync"
	"time"

	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
)

// InMemory holds pending setups for unit tests and local runs.
type InMemory struct {
	mu     sync.RWMutex
	setups map[id.SetupID]*models.Setup
}

func NewInMemory() *InMemory {
	return &InMemory{setups: make(map[id.SetupID]*models.Setup)}
}

func (s *InMemory) Create(_ context.Context, setup *models.Setup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *setup
	s.setups[setup.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, setupID id.SetupID) (*models.Setup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setup, ok := s.setups[setupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *setup
	return &cp, nil
}

func (s *InMemory) MarkStarted(_ context.Context, setupID id.SetupID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	setup, ok := s.setups[setupID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if setup.StartedAt == nil {
		t := at
		setup.StartedAt = &t
	}
	return nil
}

func (s *InMemory) Delete(_ context.Context, setupID id.SetupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.setups[setupID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.setups, setupID)
	return nil
}
