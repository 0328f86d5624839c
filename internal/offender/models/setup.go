package models

import (
	"time"

	id "supervision/pkg/domain"
)

// Setup is the transient pre-verification record that lives between the
// setup invite and the identity decision. It is created when setup starts and
// deleted when the setup completes or is terminated; it never outlives the
// decision. Exactly one live Setup exists per offender in INITIAL status.
type Setup struct {
	ID             id.SetupID    `json:"id"`
	OffenderID     id.OffenderID `json:"offender_id"`
	PractitionerID string        `json:"practitioner_id"`
	CreatedAt      time.Time     `json:"created_at"`
	// StartedAt is set once the offender opens the setup link.
	StartedAt *time.Time `json:"started_at,omitempty"`
}
