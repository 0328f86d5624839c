// Package audit records immutable, PII-free facts about lifecycle events for
// reporting. Audits are best-effort annotations: they are written in their own
// transaction after the primary mutation commits, and a failed or skipped
// audit never surfaces to the caller.
package audit

import (
	"math"
	"time"

	id "supervision/pkg/domain"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventSetupStarted     EventType = "SETUP_STARTED"
	EventSetupCompleted   EventType = "SETUP_COMPLETED"
	EventSetupTerminated  EventType = "SETUP_TERMINATED"
	EventCheckinCreated   EventType = "CHECKIN_CREATED"
	EventCheckinSubmitted EventType = "CHECKIN_SUBMITTED"
	EventCheckinReviewed  EventType = "CHECKIN_REVIEWED"
	EventCheckinExpired   EventType = "CHECKIN_EXPIRED"
	EventCheckinReminder  EventType = "CHECKIN_REMINDER"
)

// Event is a write-once audit fact. It carries case references, org unit
// codes and computed metrics, never names, contact details or other PII.
// Events are created only by the Recorder and never read back by the
// workflow; they are an append-only sink for reporting.
type Event struct {
	EventType      EventType
	OccurredAt     time.Time
	CRN            id.CRN
	PractitionerID string

	// Organizational unit facts resolved from upstream contact details.
	RegionCode        string
	RegionDescription string
	TeamCode          string
	TeamDescription   string

	// Check-in facts, present for check-in events only.
	CheckinID      *id.CheckinID
	CheckinStatus  string
	CheckinDueDate *time.Time

	// Duration metrics in hours, rounded to two decimals (half-up).
	TimeToSubmitHours   *float64
	TimeToReviewHours   *float64
	ReviewDurationHours *float64

	// Verification outcome names.
	AutoIDCheck   string
	ManualIDCheck string

	Notes string
}

// HoursBetween computes end minus start in hours, rounded to two decimals
// half-up. Returns nil when either bound is missing.
func HoursBetween(start, end *time.Time) *float64 {
	if start == nil || end == nil {
		return nil
	}
	hours := roundHours(end.Sub(*start))
	return &hours
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
