//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"supervision/internal/checkin/models"
	"supervision/internal/checkin/store"
	offendermodels "supervision/internal/offender/models"
	offenderstore "supervision/internal/offender/store/offender"
	"supervision/internal/verification"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
	"supervision/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.Postgres
	offenders *offenderstore.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.offenders = offenderstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"checkins", "offender_setups", "offenders", "event_audit")
	s.Require().NoError(err)
}

// seedOffender satisfies the foreign key; check-ins cannot exist without one.
func (s *PostgresStoreSuite) seedOffender(crn string) id.OffenderID {
	parsed, err := id.ParseCRN(crn)
	s.Require().NoError(err)
	o, err := offendermodels.NewOffender(id.OffenderID(uuid.New()), parsed, "PRAC-1",
		time.Now().UTC(), offendermodels.IntervalWeekly, time.Now().UTC(), "PRAC-1")
	s.Require().NoError(err)
	o.Status = offendermodels.StatusVerified
	s.Require().NoError(s.offenders.Create(context.Background(), o))
	return o.ID
}

func (s *PostgresStoreSuite) newCheckin(offenderID id.OffenderID, due time.Time) *models.Checkin {
	return models.NewCheckin(id.CheckinID(uuid.New()), offenderID, due,
		time.Now().UTC().Truncate(time.Microsecond), "SYSTEM")
}

func (s *PostgresStoreSuite) TestFreshCheckinRoundTrip() {
	ctx := context.Background()
	offenderID := s.seedOffender("A111111")
	due := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	c := s.newCheckin(offenderID, due)

	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCreated, found.Status)
	s.True(found.DueDate.Equal(due))
	s.Equal("SYSTEM", found.CreatedBy)
	s.Nil(found.SubmittedAt)
	s.Nil(found.ReviewStartedAt)
	s.Nil(found.ReviewedAt)
	s.Nil(found.ReviewedBy)
	s.Nil(found.AutoIDCheck)
	s.Nil(found.ManualIDCheck)
	s.Empty(found.SnapshotKeys)
	s.Empty(found.SurveyResponse)
}

func (s *PostgresStoreSuite) TestReviewedCheckinRoundTrip() {
	ctx := context.Background()
	offenderID := s.seedOffender("B222222")
	c := s.newCheckin(offenderID, time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, c))

	submittedAt := time.Date(2026, 6, 30, 14, 0, 0, 0, time.UTC)
	c.ApplySubmission(submittedAt, verification.OutcomeMatch,
		[]string{"snap-1", "snap-2"}, []byte(`{"mood":"ok"}`))
	c.ApplyReviewStart(submittedAt.Add(30 * time.Minute))
	c.ApplyReview(submittedAt.Add(time.Hour), "PRAC-9", verification.OutcomeNoMatch)
	s.Require().NoError(s.store.Update(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusReviewed, found.Status)
	s.Require().NotNil(found.SubmittedAt)
	s.True(found.SubmittedAt.Equal(submittedAt))
	s.Require().NotNil(found.ReviewStartedAt)
	s.True(found.ReviewStartedAt.Equal(submittedAt.Add(30 * time.Minute)))
	s.Require().NotNil(found.ReviewedBy)
	s.Equal("PRAC-9", *found.ReviewedBy)
	s.Require().NotNil(found.AutoIDCheck)
	s.Equal(verification.OutcomeMatch, *found.AutoIDCheck)
	s.Require().NotNil(found.ManualIDCheck)
	s.Equal(verification.OutcomeNoMatch, *found.ManualIDCheck)
	s.Equal([]string{"snap-1", "snap-2"}, found.SnapshotKeys)
	s.JSONEq(`{"mood":"ok"}`, string(found.SurveyResponse))
}

func (s *PostgresStoreSuite) TestDuplicateDueDateConflicts() {
	ctx := context.Background()
	offenderID := s.seedOffender("C333333")
	due := time.Date(2026, 7, 8, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Create(ctx, s.newCheckin(offenderID, due)))
	s.ErrorIs(s.store.Create(ctx, s.newCheckin(offenderID, due)), sentinel.ErrConflict)

	exists, err := s.store.ExistsForOffenderDue(ctx, offenderID, due)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsForOffenderDue(ctx, offenderID, due.Add(time.Hour))
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestListOpenDueBefore() {
	ctx := context.Background()
	offenderID := s.seedOffender("D444444")
	cutoff := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	overdueCreated := s.newCheckin(offenderID, cutoff.AddDate(0, 0, -2))
	s.Require().NoError(s.store.Create(ctx, overdueCreated))

	overdueSubmitted := s.newCheckin(offenderID, cutoff.AddDate(0, 0, -1))
	s.Require().NoError(s.store.Create(ctx, overdueSubmitted))
	overdueSubmitted.ApplySubmission(cutoff, verification.OutcomeMatch, []string{"snap"}, nil)
	s.Require().NoError(s.store.Update(ctx, overdueSubmitted))

	reviewed := s.newCheckin(offenderID, cutoff.AddDate(0, 0, -3))
	s.Require().NoError(s.store.Create(ctx, reviewed))
	reviewed.ApplySubmission(cutoff, verification.OutcomeMatch, []string{"snap"}, nil)
	reviewed.ApplyReview(cutoff, "PRAC-1", verification.OutcomeMatch)
	s.Require().NoError(s.store.Update(ctx, reviewed))

	future := s.newCheckin(offenderID, cutoff.AddDate(0, 0, 1))
	s.Require().NoError(s.store.Create(ctx, future))

	got, err := s.store.ListOpenDueBefore(ctx, cutoff)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(overdueCreated.ID, got[0].ID)
	s.Equal(overdueSubmitted.ID, got[1].ID)
}

func (s *PostgresStoreSuite) TestListCreatedDueBetween() {
	ctx := context.Background()
	offenderID := s.seedOffender("E555555")
	from := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	inWindow := s.newCheckin(offenderID, from.Add(6*time.Hour))
	s.Require().NoError(s.store.Create(ctx, inWindow))

	onEnd := s.newCheckin(offenderID, to)
	s.Require().NoError(s.store.Create(ctx, onEnd))

	submitted := s.newCheckin(offenderID, from.Add(12*time.Hour))
	s.Require().NoError(s.store.Create(ctx, submitted))
	submitted.ApplySubmission(from, verification.OutcomeMatch, []string{"snap"}, nil)
	s.Require().NoError(s.store.Update(ctx, submitted))

	got, err := s.store.ListCreatedDueBetween(ctx, from, to)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(inWindow.ID, got[0].ID)
}
