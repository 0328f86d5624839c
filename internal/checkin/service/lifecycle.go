package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supervision/internal/audit"
	"supervision/internal/checkin/models"
	"supervision/internal/notify"
	offendermodels "supervision/internal/offender/models"
	"supervision/internal/verification"
	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
	"supervision/pkg/platform/events"
	"supervision/pkg/platform/sentinel"
	"supervision/pkg/requestcontext"
)

// SubmitInput is the offender's submission payload.
type SubmitInput struct {
	CheckinID    id.CheckinID
	SnapshotKeys []string
	Survey       []byte
}

// Submit runs the identity check over the submitted snapshots and moves the
// check-in to SUBMITTED. The verification outcome never blocks submission: a
// NO_MATCH or ERROR is recorded for the practitioner to review.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.Checkin, error) {
	checkin, err := s.findCheckin(ctx, input.CheckinID)
	if err != nil {
		return nil, err
	}
	if err := checkin.CanSubmit(); err != nil {
		return nil, err
	}
	offender, err := s.findOffender(ctx, checkin.OffenderID)
	if err != nil {
		return nil, err
	}

	verifyStart := time.Now()
	outcome := s.verifier.Verify(ctx, s.storage.ReferenceKey(offender.ID), input.SnapshotKeys)
	s.observeVerify(verifyStart)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		checkin.ApplySubmission(requestcontext.Now(txCtx), outcome, input.SnapshotKeys, input.Survey)
		if err := s.checkins.Update(txCtx, checkin); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update checkin")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := s.resolveContacts(ctx, offender.CRN)
	event := s.checkinEvent(ctx, audit.EventCheckinSubmitted, offender, checkin)
	event.TimeToSubmitHours = audit.HoursBetween(&checkin.CreatedAt, checkin.SubmittedAt)
	s.recorder.Record(ctx, audit.Fact{Event: event, ContactDetails: details})

	if details != nil && details.Practitioner != nil {
		s.notifier.Send(ctx, notify.TypeCheckinSubmitted, details.Practitioner.Email,
			offender.CRN, checkin.ID.String())
	}
	s.publish(ctx, events.TypeCheckinReceived, offender.CRN, checkin)
	s.incrementSubmitted()
	return checkin, nil
}

// StartReview marks the moment a practitioner first opened the submission;
// repeat opens keep the original timestamp so the review-duration metric
// measures from the first look.
func (s *Service) StartReview(ctx context.Context, checkinID id.CheckinID) (*models.Checkin, error) {
	checkin, err := s.findCheckin(ctx, checkinID)
	if err != nil {
		return nil, err
	}
	if err := checkin.CanReview(); err != nil {
		return nil, err
	}
	if checkin.ReviewStartedAt != nil {
		return checkin, nil
	}
	checkin.ApplyReviewStart(requestcontext.Now(ctx))
	if err := s.checkins.Update(ctx, checkin); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update checkin")
	}
	return checkin, nil
}

// ReviewInput is the practitioner's review decision.
type ReviewInput struct {
	CheckinID id.CheckinID
	// ManualIDCheck is the practitioner's identity judgement, which may
	// override the automatic outcome.
	ManualIDCheck verification.Outcome
}

// Review completes a submitted check-in.
func (s *Service) Review(ctx context.Context, input ReviewInput) (*models.Checkin, error) {
	checkin, err := s.findCheckin(ctx, input.CheckinID)
	if err != nil {
		return nil, err
	}
	if err := checkin.CanReview(); err != nil {
		return nil, err
	}
	offender, err := s.findOffender(ctx, checkin.OffenderID)
	if err != nil {
		return nil, err
	}
	reviewerID := requestcontext.Practitioner(ctx)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		checkin.ApplyReview(requestcontext.Now(txCtx), reviewerID, input.ManualIDCheck)
		if err := s.checkins.Update(txCtx, checkin); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update checkin")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := s.checkinEvent(ctx, audit.EventCheckinReviewed, offender, checkin)
	event.TimeToReviewHours = audit.HoursBetween(checkin.SubmittedAt, checkin.ReviewedAt)
	event.ReviewDurationHours = audit.HoursBetween(checkin.ReviewStartedAt, checkin.ReviewedAt)
	if reviewerID != "" && reviewerID != offender.PractitionerID {
		event.Notes = fmt.Sprintf("reviewed by covering practitioner %s", reviewerID)
	}
	s.recorder.Record(ctx, audit.Fact{Event: event, ContactDetails: s.resolveContacts(ctx, offender.CRN)})
	s.incrementReviewed()
	return checkin, nil
}

// GetCheckin returns the aggregate by id.
func (s *Service) GetCheckin(ctx context.Context, checkinID id.CheckinID) (*models.Checkin, error) {
	return s.findCheckin(ctx, checkinID)
}

// ListByOffender returns a page of the offender's check-ins ordered by due date.
func (s *Service) ListByOffender(ctx context.Context, offenderID id.OffenderID, limit, offset int) ([]*models.Checkin, error) {
	checkins, err := s.checkins.ListByOffender(ctx, offenderID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list checkins")
	}
	return checkins, nil
}

func (s *Service) findCheckin(ctx context.Context, checkinID id.CheckinID) (*models.Checkin, error) {
	checkin, err := s.checkins.FindByID(ctx, checkinID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "checkin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checkin")
	}
	return checkin, nil
}

func (s *Service) findOffender(ctx context.Context, offenderID id.OffenderID) (*offendermodels.Offender, error) {
	offender, err := s.offenders.FindByID(ctx, offenderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checkin offender")
	}
	return offender, nil
}

// checkinEvent assembles the common audit fields for a check-in event.
func (s *Service) checkinEvent(ctx context.Context, eventType audit.EventType, offender *offendermodels.Offender, checkin *models.Checkin) audit.Event {
	checkinID := checkin.ID
	dueDate := checkin.DueDate
	event := audit.Event{
		EventType:      eventType,
		OccurredAt:     requestcontext.Now(ctx),
		CRN:            offender.CRN,
		PractitionerID: offender.PractitionerID,
		CheckinID:      &checkinID,
		CheckinStatus:  string(checkin.Status),
		CheckinDueDate: &dueDate,
	}
	if checkin.AutoIDCheck != nil {
		event.AutoIDCheck = string(*checkin.AutoIDCheck)
	}
	if checkin.ManualIDCheck != nil {
		event.ManualIDCheck = string(*checkin.ManualIDCheck)
	}
	return event
}

func (s *Service) publish(ctx context.Context, eventType events.Type, crn id.CRN, checkin *models.Checkin) {
	payload := map[string]any{
		"checkinId": checkin.ID.String(),
		"crn":       crn.String(),
		"status":    string(checkin.Status),
		"dueDate":   checkin.DueDate,
	}
	if checkin.AutoIDCheck != nil {
		payload["autoIdCheck"] = string(*checkin.AutoIDCheck)
	}
	if err := s.publisher.Publish(ctx, eventType, crn.String(), payload); err != nil {
		s.warnf("publish %s for checkin %s: %v", eventType, checkin.ID, err)
	}
}

func (s *Service) observeVerify(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveVerify(start)
	}
}

func (s *Service) incrementSubmitted() {
	if s.metrics != nil {
		s.metrics.IncrementCheckinsSubmitted()
	}
}

func (s *Service) incrementReviewed() {
	if s.metrics != nil {
		s.metrics.IncrementCheckinsReviewed()
	}
}
