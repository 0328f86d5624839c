package models

import (
	"time"

	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
)

// Offender is the aggregate root for a person under supervision.
//
// Invariants:
//   - CRN is immutable after creation and unique per active offender
//   - Status transitions only follow the table in status.go
//   - FirstCheckin and Interval drive the due-date schedule once VERIFIED
//   - CreatedAt/CreatedBy are immutable after construction
type Offender struct {
	ID             id.OffenderID   `json:"id"`
	CRN            id.CRN          `json:"crn"`
	Status         Status          `json:"status"`
	FirstCheckin   time.Time       `json:"first_checkin"`
	Interval       CheckinInterval `json:"checkin_interval"`
	PractitionerID string          `json:"practitioner_id"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewOffender constructs an offender in INITIAL status.
func NewOffender(offenderID id.OffenderID, crn id.CRN, practitionerID string, firstCheckin time.Time, interval CheckinInterval, now time.Time, createdBy string) (*Offender, error) {
	if crn == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "crn is required")
	}
	if practitionerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "practitioner id is required")
	}
	if firstCheckin.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "first checkin date is required")
	}
	if interval.Duration() == 0 {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unrecognised checkin interval %q", interval)
	}
	return &Offender{
		ID:             offenderID,
		CRN:            crn,
		Status:         StatusInitial,
		FirstCheckin:   firstCheckin,
		Interval:       interval,
		PractitionerID: practitionerID,
		CreatedAt:      now,
		CreatedBy:      createdBy,
		UpdatedAt:      now,
	}, nil
}

// CanVerify checks the INITIAL -> VERIFIED transition.
// Use with ApplyVerification so validation and mutation stay separable.
func (o *Offender) CanVerify() error {
	if !o.Status.CanTransitionTo(StatusVerified) {
		return o.Status.TransitionError(StatusVerified)
	}
	return nil
}

// ApplyVerification transitions the offender to VERIFIED.
// Call CanVerify first to validate the transition.
func (o *Offender) ApplyVerification(now time.Time) {
	o.Status = StatusVerified
	o.UpdatedAt = now
}

// CanDeactivate checks the transition to INACTIVE.
func (o *Offender) CanDeactivate() error {
	if !o.Status.CanTransitionTo(StatusInactive) {
		return o.Status.TransitionError(StatusInactive)
	}
	return nil
}

// ApplyDeactivation transitions the offender to INACTIVE.
// Call CanDeactivate first to validate the transition.
func (o *Offender) ApplyDeactivation(now time.Time) {
	o.Status = StatusInactive
	o.UpdatedAt = now
}

// NextDueAfter returns the first scheduled check-in date at or after `from`:
// FirstCheckin plus the smallest non-negative integer multiple of Interval
// that lands at or past `from`.
func (o *Offender) NextDueAfter(from time.Time) time.Time {
	step := o.Interval.Duration()
	if !o.FirstCheckin.Before(from) || step <= 0 {
		return o.FirstCheckin
	}
	elapsed := from.Sub(o.FirstCheckin)
	n := elapsed / step
	if elapsed%step != 0 {
		n++
	}
	return o.FirstCheckin.Add(n * step)
}
