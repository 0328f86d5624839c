package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"supervision/internal/audit"
	"supervision/internal/contacts"
	"supervision/internal/notify"
	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
	"supervision/pkg/platform/sentinel"
	"supervision/pkg/requestcontext"
)

// StartSetupInput carries the practitioner's request to begin supervision.
type StartSetupInput struct {
	CRN          string
	FirstCheckin time.Time
	Interval     string
}

// StartSetupResult is the created aggregate pair.
type StartSetupResult struct {
	Offender *models.Offender
	Setup    *models.Setup
}

// StartSetup creates an INITIAL offender and its pending setup in one
// transaction. A second active offender with the same CRN is a conflict.
func (s *Service) StartSetup(ctx context.Context, input StartSetupInput) (*StartSetupResult, error) {
	crn, err := id.ParseCRN(input.CRN)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid crn")
	}
	interval, err := models.ParseInterval(input.Interval)
	if err != nil {
		return nil, err
	}
	practitionerID := requestcontext.Practitioner(ctx)

	var result StartSetupResult
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		offender, err := models.NewOffender(id.OffenderID(uuid.New()), crn, practitionerID,
			input.FirstCheckin, interval, now, practitionerID)
		if err != nil {
			return err
		}
		if err := s.offenders.Create(txCtx, offender); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflict, "an active offender already exists for crn %s", crn)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create offender")
		}

		setup := &models.Setup{
			ID:             id.SetupID(uuid.New()),
			OffenderID:     offender.ID,
			PractitionerID: practitionerID,
			CreatedAt:      now,
		}
		if err := s.setups.Create(txCtx, setup); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create setup")
		}

		result = StartSetupResult{Offender: offender, Setup: setup}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, audit.EventSetupStarted, result.Offender, requestcontext.Now(ctx))
	s.incrementStarted()
	return &result, nil
}

// MarkSetupStarted records the first time the offender opened the setup link.
// Idempotent: repeat opens keep the original timestamp.
func (s *Service) MarkSetupStarted(ctx context.Context, setupID id.SetupID) error {
	if err := s.setups.MarkStarted(ctx, setupID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "offender setup not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark setup started")
	}
	return nil
}

// CompleteSetup verifies the offender once the reference photo is in place.
// The photo check happens before any mutation: an incomplete setup leaves the
// offender untouched in INITIAL.
func (s *Service) CompleteSetup(ctx context.Context, setupID id.SetupID) (*models.Offender, error) {
	setup, err := s.findSetup(ctx, setupID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.PhotoExists(ctx, setup.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check setup photo")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeInvalidState, "setup photo has not been uploaded")
	}

	var offender *models.Offender
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.offenders.FindByID(txCtx, setup.OffenderID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load offender")
		}
		if err := o.CanVerify(); err != nil {
			return err
		}
		o.ApplyVerification(requestcontext.Now(txCtx))
		if err := s.offenders.Update(txCtx, o); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update offender")
		}
		if err := s.setups.Delete(txCtx, setup.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close setup")
		}
		offender = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := s.audit(ctx, audit.EventSetupCompleted, offender, requestcontext.Now(ctx))
	s.notifier.Send(ctx, notify.TypeRegistrationConfirmed, offenderEmail(details), offender.CRN, "")
	s.incrementCompleted()
	return offender, nil
}

// TerminateSetup abandons a pending setup and deactivates its offender.
func (s *Service) TerminateSetup(ctx context.Context, setupID id.SetupID) (*models.Offender, error) {
	setup, err := s.findSetup(ctx, setupID)
	if err != nil {
		return nil, err
	}

	var offender *models.Offender
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.offenders.FindByID(txCtx, setup.OffenderID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load offender")
		}
		if err := o.CanDeactivate(); err != nil {
			return err
		}
		o.ApplyDeactivation(requestcontext.Now(txCtx))
		if err := s.offenders.Update(txCtx, o); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update offender")
		}
		if err := s.setups.Delete(txCtx, setup.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close setup")
		}
		offender = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := s.audit(ctx, audit.EventSetupTerminated, offender, requestcontext.Now(ctx))
	s.notifier.Send(ctx, notify.TypeSupervisionEnded, offenderEmail(details), offender.CRN, "")
	s.incrementTerminated()
	return offender, nil
}

// GetOffender returns the aggregate by id.
func (s *Service) GetOffender(ctx context.Context, offenderID id.OffenderID) (*models.Offender, error) {
	offender, err := s.offenders.FindByID(ctx, offenderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "offender not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load offender")
	}
	return offender, nil
}

// ListOffenders returns a page of offenders ordered by creation time.
func (s *Service) ListOffenders(ctx context.Context, limit, offset int) ([]*models.Offender, error) {
	offenders, err := s.offenders.List(ctx, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list offenders")
	}
	return offenders, nil
}

// OffenderPhotoURL returns a signed URL for the reference photo, "" when the
// photo is absent.
func (s *Service) OffenderPhotoURL(ctx context.Context, offenderID id.OffenderID) (string, error) {
	if _, err := s.GetOffender(ctx, offenderID); err != nil {
		return "", err
	}
	url, err := s.storage.OffenderPhotoURL(ctx, offenderID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve photo url")
	}
	return url, nil
}

func (s *Service) findSetup(ctx context.Context, setupID id.SetupID) (*models.Setup, error) {
	setup, err := s.setups.FindByID(ctx, setupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "offender setup not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load setup")
	}
	return setup, nil
}

// audit records a best-effort setup lifecycle event and returns the contact
// details it resolved so the caller can reuse them for notifications.
func (s *Service) audit(ctx context.Context, eventType audit.EventType, offender *models.Offender, at time.Time) *contacts.ContactDetails {
	details, err := s.contacts.GetContactDetails(ctx, offender.CRN)
	if err != nil {
		details = nil
	}
	s.recorder.Record(ctx, audit.Fact{
		Event: audit.Event{
			EventType:      eventType,
			OccurredAt:     at,
			CRN:            offender.CRN,
			PractitionerID: offender.PractitionerID,
		},
		ContactDetails: details,
	})
	return details
}

func offenderEmail(details *contacts.ContactDetails) string {
	if details == nil {
		return ""
	}
	return details.OffenderEmail
}

func (s *Service) incrementStarted() {
	if s.metrics != nil {
		s.metrics.IncrementSetupsStarted()
	}
}

func (s *Service) incrementCompleted() {
	if s.metrics != nil {
		s.metrics.IncrementSetupsCompleted()
	}
}

func (s *Service) incrementTerminated() {
	if s.metrics != nil {
		s.metrics.IncrementSetupsTerminated()
	}
}
