package offender

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newOffender(crn string, firstCheckin time.Time, interval models.CheckinInterval) *models.Offender {
	parsed, err := id.ParseCRN(crn)
	s.Require().NoError(err)
	offender, err := models.NewOffender(id.OffenderID(uuid.New()), parsed, "PRAC-1",
		firstCheckin, interval, s.now, "PRAC-1")
	s.Require().NoError(err)
	return offender
}

func (s *MemoryStoreSuite) TestCreateEnforcesActiveCRNUniqueness() {
	first := s.newOffender("X123456", s.now, models.IntervalWeekly)
	s.Require().NoError(s.store.Create(s.ctx, first))

	dup := s.newOffender("X123456", s.now, models.IntervalWeekly)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)

	s.Run("an INACTIVE offender frees the crn", func() {
		first.ApplyDeactivation(s.now)
		s.Require().NoError(s.store.Update(s.ctx, first))
		s.NoError(s.store.Create(s.ctx, dup))
	})
}

func (s *MemoryStoreSuite) TestFindAndUpdate() {
	offender := s.newOffender("X123456", s.now, models.IntervalWeekly)
	s.Require().NoError(s.store.Create(s.ctx, offender))

	found, err := s.store.FindByID(s.ctx, offender.ID)
	s.Require().NoError(err)
	s.Equal(offender.CRN, found.CRN)

	found.ApplyVerification(s.now)
	s.Require().NoError(s.store.Update(s.ctx, found))
	again, err := s.store.FindByID(s.ctx, offender.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, again.Status)

	_, err = s.store.FindByID(s.ctx, id.OffenderID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDueCandidates() {
	verified := func(crn string, firstCheckin time.Time, interval models.CheckinInterval) *models.Offender {
		o := s.newOffender(crn, firstCheckin, interval)
		o.ApplyVerification(s.now)
		s.Require().NoError(s.store.Create(s.ctx, o))
		return o
	}

	windowStart := s.now
	windowEnd := s.now.Add(24 * time.Hour)

	s.Run("first check-in inside the window", func() {
		verified("A000001", windowStart.Add(2*time.Hour), models.IntervalWeekly)
		due, err := s.store.DueCandidates(s.ctx, windowStart, windowEnd)
		s.Require().NoError(err)
		s.Len(due, 1)
	})

	s.Run("recurrence landing inside the window", func() {
		verified("A000002", windowStart.Add(3*time.Hour).Add(-14*24*time.Hour), models.IntervalTwoWeeks)
		due, err := s.store.DueCandidates(s.ctx, windowStart, windowEnd)
		s.Require().NoError(err)
		s.Len(due, 2)
	})

	s.Run("window end is exclusive", func() {
		verified("A000003", windowEnd, models.IntervalWeekly)
		due, err := s.store.DueCandidates(s.ctx, windowStart, windowEnd)
		s.Require().NoError(err)
		s.Len(due, 2, "a check-in due exactly at the window end is the next window's business")
	})

	s.Run("window start is inclusive", func() {
		verified("A000004", windowStart.Add(-7*24*time.Hour), models.IntervalWeekly)
		due, err := s.store.DueCandidates(s.ctx, windowStart, windowEnd)
		s.Require().NoError(err)
		s.Len(due, 3, "a recurrence landing exactly on the window start is due now")
	})

	s.Run("non-verified offenders are never due", func() {
		initial := s.newOffender("A000005", windowStart.Add(time.Hour), models.IntervalWeekly)
		s.Require().NoError(s.store.Create(s.ctx, initial))
		inactive := s.newOffender("A000006", windowStart.Add(time.Hour), models.IntervalWeekly)
		inactive.ApplyVerification(s.now)
		inactive.ApplyDeactivation(s.now)
		s.Require().NoError(s.store.Create(s.ctx, inactive))

		due, err := s.store.DueCandidates(s.ctx, windowStart, windowEnd)
		s.Require().NoError(err)
		s.Len(due, 3)
	})

	s.Run("future schedules stay out", func() {
		verified("A000007", windowEnd.Add(time.Hour), models.IntervalWeekly)
		due, err := s.store.DueCandidates(s.ctx, windowStart, windowEnd)
		s.Require().NoError(err)
		s.Len(due, 3)
	})
}

func (s *MemoryStoreSuite) TestListPaginates() {
	for i, crn := range []string{"B000001", "B000002", "B000003"} {
		o := s.newOffender(crn, s.now, models.IntervalWeekly)
		o.CreatedAt = s.now.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Create(s.ctx, o))
	}

	page, err := s.store.List(s.ctx, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal("B000001", page[0].CRN.String())

	rest, err := s.store.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Equal("B000003", rest[0].CRN.String())

	none, err := s.store.List(s.ctx, 2, 5)
	s.Require().NoError(err)
	s.Empty(none)
}
