package models

import (
	"time"

	"supervision/internal/verification"
	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
)

// CheckinStatus is the lifecycle status of a single check-in cycle.
type CheckinStatus string

const (
	// StatusCreated: the sweep scheduled the check-in; awaiting submission.
	StatusCreated CheckinStatus = "CREATED"
	// StatusSubmitted: offender submitted media and survey; awaiting review.
	StatusSubmitted CheckinStatus = "SUBMITTED"
	// StatusReviewed: a practitioner completed review. Terminal.
	StatusReviewed CheckinStatus = "REVIEWED"
	// StatusExpired: the due date passed without review. Terminal, and only
	// reachable through the sweep, never via direct API action.
	StatusExpired CheckinStatus = "EXPIRED"
)

var checkinTransitions = map[CheckinStatus][]CheckinStatus{
	StatusCreated:   {StatusSubmitted, StatusExpired},
	StatusSubmitted: {StatusReviewed, StatusExpired},
	StatusReviewed:  {},
	StatusExpired:   {},
}

// CanTransitionTo reports whether the status may move to target.
func (s CheckinStatus) CanTransitionTo(target CheckinStatus) bool {
	for _, allowed := range checkinTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsOpen reports whether the check-in can still progress or expire.
func (s CheckinStatus) IsOpen() bool {
	return s == StatusCreated || s == StatusSubmitted
}

// Checkin is one scheduled submission cycle with its own review lifecycle.
//
// Invariants:
//   - SubmittedAt is set only once status has reached SUBMITTED
//   - ReviewedAt/ReviewedBy are set only when status is REVIEWED
//   - AutoIDCheck is nil until submission
type Checkin struct {
	ID         id.CheckinID  `json:"id"`
	OffenderID id.OffenderID `json:"offender_id"`
	Status     CheckinStatus `json:"status"`
	DueDate    time.Time     `json:"due_date"`
	CreatedAt  time.Time     `json:"created_at"`
	CreatedBy  string        `json:"created_by"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ReviewStartedAt *time.Time `json:"review_started_at,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`

	// AutoIDCheck is the identity verification engine's outcome at submission.
	AutoIDCheck *verification.Outcome `json:"auto_id_check,omitempty"`
	// ManualIDCheck is the reviewing practitioner's override.
	ManualIDCheck *verification.Outcome `json:"manual_id_check,omitempty"`

	// SnapshotKeys reference the submitted media in object storage.
	SnapshotKeys []string `json:"snapshot_keys,omitempty"`
	// SurveyResponse is the raw survey payload; the workflow stores it opaquely.
	SurveyResponse []byte `json:"survey_response,omitempty"`
}

// NewCheckin constructs a check-in in CREATED status for a due date.
func NewCheckin(checkinID id.CheckinID, offenderID id.OffenderID, dueDate, now time.Time, createdBy string) *Checkin {
	return &Checkin{
		ID:         checkinID,
		OffenderID: offenderID,
		Status:     StatusCreated,
		DueDate:    dueDate,
		CreatedAt:  now,
		CreatedBy:  createdBy,
	}
}

func (c *Checkin) transitionError(target CheckinStatus) error {
	return dErrors.Newf(dErrors.CodeInvalidState,
		"invalid checkin transition from %s to %s for %s", c.Status, target, c.ID)
}

// CanSubmit checks the CREATED -> SUBMITTED transition.
func (c *Checkin) CanSubmit() error {
	if !c.Status.CanTransitionTo(StatusSubmitted) {
		return c.transitionError(StatusSubmitted)
	}
	return nil
}

// ApplySubmission records the submitted media, survey and auto identity
// check, and moves the check-in to SUBMITTED. Call CanSubmit first.
func (c *Checkin) ApplySubmission(now time.Time, autoCheck verification.Outcome, snapshotKeys []string, survey []byte) {
	c.Status = StatusSubmitted
	c.SubmittedAt = &now
	c.AutoIDCheck = &autoCheck
	c.SnapshotKeys = snapshotKeys
	c.SurveyResponse = survey
}

// ApplyReviewStart records when a practitioner first opened the submission
// for review. Later opens keep the original timestamp.
func (c *Checkin) ApplyReviewStart(now time.Time) {
	if c.ReviewStartedAt == nil {
		c.ReviewStartedAt = &now
	}
}

// CanReview checks the SUBMITTED -> REVIEWED transition.
func (c *Checkin) CanReview() error {
	if !c.Status.CanTransitionTo(StatusReviewed) {
		return c.transitionError(StatusReviewed)
	}
	return nil
}

// ApplyReview completes the review. ReviewStartedAt is set on first touch
// only; re-recording it would corrupt the review-duration metric.
func (c *Checkin) ApplyReview(now time.Time, reviewerID string, manual verification.Outcome) {
	if c.ReviewStartedAt == nil {
		c.ReviewStartedAt = &now
	}
	c.Status = StatusReviewed
	c.ReviewedAt = &now
	c.ReviewedBy = &reviewerID
	c.ManualIDCheck = &manual
}

// CanExpire checks the sweep-driven transition to EXPIRED.
func (c *Checkin) CanExpire() error {
	if !c.Status.CanTransitionTo(StatusExpired) {
		return c.transitionError(StatusExpired)
	}
	return nil
}

// ApplyExpiry moves the check-in to EXPIRED.
func (c *Checkin) ApplyExpiry() {
	c.Status = StatusExpired
}
