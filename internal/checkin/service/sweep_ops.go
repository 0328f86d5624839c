package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"supervision/internal/audit"
	"supervision/internal/checkin/models"
	"supervision/internal/contacts"
	"supervision/internal/notify"
	offendermodels "supervision/internal/offender/models"
	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
	"supervision/pkg/platform/events"
	"supervision/pkg/requestcontext"
)

// sweepActor is recorded as the creator of sweep-scheduled check-ins.
const sweepActor = "SYSTEM"

// CreateDueCheckins schedules a check-in for every verified offender whose
// cadence lands in [from, to). An offender who already holds a check-in for
// exactly that due date is skipped, which makes the operation safe to re-run
// over an overlapping window.
func (s *Service) CreateDueCheckins(ctx context.Context, from, to time.Time) (int, error) {
	candidates, err := s.offenders.DueCandidates(ctx, from, to)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query due candidates")
	}

	now := requestcontext.Now(ctx)
	var created []*models.Checkin
	var owners []*offendermodels.Offender
	for _, offender := range candidates {
		dueDate := offender.NextDueAfter(from)
		exists, err := s.checkins.ExistsForOffenderDue(ctx, offender.ID, dueDate)
		if err != nil {
			return len(created), dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing checkin")
		}
		if exists {
			continue
		}
		checkin := models.NewCheckin(id.CheckinID(uuid.New()), offender.ID, dueDate, now, sweepActor)
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			return s.checkins.Create(txCtx, checkin)
		})
		if err != nil {
			s.warnf("create checkin due %s: %v", dueDate.Format(time.RFC3339), err)
			continue
		}
		created = append(created, checkin)
		owners = append(owners, offender)
	}

	facts := make([]audit.Fact, 0, len(created))
	for i, checkin := range created {
		facts = append(facts, audit.Fact{
			Event:          s.checkinEvent(ctx, audit.EventCheckinCreated, owners[i], checkin),
			ContactDetails: s.resolveContacts(ctx, owners[i].CRN),
		})
	}
	s.recorder.RecordBatch(ctx, facts)
	s.addCreated(len(created))
	return len(created), nil
}

// ExpireOverdue moves every open check-in whose due date passed before the
// cutoff to EXPIRED. All transitions commit in one transaction; the audit
// batch and domain events follow and cannot undo them. A check-in whose
// contact details fail to resolve still expires, it just loses its audit row.
func (s *Service) ExpireOverdue(ctx context.Context, cutoff time.Time) (int, error) {
	overdue, err := s.checkins.ListOpenDueBefore(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list overdue checkins")
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, checkin := range overdue {
			if err := checkin.CanExpire(); err != nil {
				return err
			}
			checkin.ApplyExpiry()
			if err := s.checkins.Update(txCtx, checkin); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire checkin")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	resolver := newContactCache(s)
	facts := make([]audit.Fact, 0, len(overdue))
	for _, checkin := range overdue {
		offender, err := s.findOffender(ctx, checkin.OffenderID)
		if err != nil {
			s.warnf("expired checkin %s: %v", checkin.ID, err)
			continue
		}
		facts = append(facts, audit.Fact{
			Event:          s.checkinEvent(ctx, audit.EventCheckinExpired, offender, checkin),
			ContactDetails: resolver.get(ctx, offender.CRN),
		})
		s.publish(ctx, events.TypeCheckinExpired, offender.CRN, checkin)
	}
	s.recorder.RecordBatch(ctx, facts)
	s.addExpired(len(overdue))
	return len(overdue), nil
}

// SendReminders notifies offenders whose unsubmitted check-in falls due in
// [from, to). A reminder needs a recipient: when contact details cannot be
// resolved the check-in is skipped with a warning and gets no audit row.
func (s *Service) SendReminders(ctx context.Context, from, to time.Time) (int, error) {
	dueSoon, err := s.checkins.ListCreatedDueBetween(ctx, from, to)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reminder candidates")
	}

	resolver := newContactCache(s)
	var facts []audit.Fact
	sent := 0
	for _, checkin := range dueSoon {
		offender, err := s.findOffender(ctx, checkin.OffenderID)
		if err != nil {
			s.warnf("reminder for checkin %s: %v", checkin.ID, err)
			continue
		}
		details := resolver.get(ctx, offender.CRN)
		if details == nil || details.OffenderEmail == "" {
			s.warnf("skipping reminder for checkin %s: contact details unresolved", checkin.ID)
			continue
		}
		s.notifier.Send(ctx, notify.TypeCheckinReminder, details.OffenderEmail,
			offender.CRN, checkin.ID.String())
		facts = append(facts, audit.Fact{
			Event:          s.checkinEvent(ctx, audit.EventCheckinReminder, offender, checkin),
			ContactDetails: details,
		})
		sent++
	}
	s.recorder.RecordBatch(ctx, facts)
	s.addReminders(sent)
	return sent, nil
}

// contactCache deduplicates lookups within one sweep batch; one offender can
// hold several overdue check-ins.
type contactCache struct {
	service *Service
	seen    map[id.CRN]*contacts.ContactDetails
}

func newContactCache(s *Service) *contactCache {
	return &contactCache{service: s, seen: make(map[id.CRN]*contacts.ContactDetails)}
}

func (c *contactCache) get(ctx context.Context, crn id.CRN) *contacts.ContactDetails {
	if details, ok := c.seen[crn]; ok {
		return details
	}
	details := c.service.resolveContacts(ctx, crn)
	c.seen[crn] = details
	return details
}

func (s *Service) addCreated(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.AddCheckinsCreated(n)
	}
}

func (s *Service) addExpired(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.AddCheckinsExpired(n)
	}
}

func (s *Service) addReminders(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.AddRemindersSent(n)
	}
}
