// Package contacts resolves practitioner and organizational details for a
// case from the upstream case-data provider. Resolution is best-effort by
// contract: a failed lookup yields (nil, nil) and callers degrade to
// "no audit, no notification" rather than blocking the lifecycle.
package contacts

import (
	"context"
	"time"

	id "supervision/pkg/domain"
)

// OrgUnit is a non-PII organizational unit reference.
type OrgUnit struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Practitioner carries the supervising staff member's contact and org facts.
// Name and Email are PII and must never reach audit rows or logs.
type Practitioner struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Region OrgUnit `json:"region"`
	Team   OrgUnit `json:"team"`
}

// ContactDetails is what the upstream provider knows about a case.
type ContactDetails struct {
	Practitioner *Practitioner `json:"practitioner"`
	// OffenderEmail is the check-in recipient address, when known.
	OffenderEmail string `json:"offenderEmail"`
}

// Provider looks up contact details by CRN. Implementations return (nil, nil)
// on any resolution failure; an error is reserved for programming mistakes,
// not upstream unavailability.
type Provider interface {
	GetContactDetails(ctx context.Context, crn id.CRN) (*ContactDetails, error)
}

// MockProvider returns deterministic contact details with a configurable
// latency to mimic real-world calls; used when no upstream endpoint is
// configured.
type MockProvider struct {
	Latency time.Duration
	// Unresolvable simulates upstream lookup misses.
	Unresolvable bool
}

func (p MockProvider) GetContactDetails(_ context.Context, crn id.CRN) (*ContactDetails, error) {
	time.Sleep(p.Latency)
	if p.Unresolvable {
		return nil, nil
	}
	return &ContactDetails{
		Practitioner: &Practitioner{
			Name:   "Sample Practitioner",
			Email:  "practitioner@example.org",
			Region: OrgUnit{Code: "R01", Description: "Sample Region"},
			Team:   OrgUnit{Code: "T01", Description: "Sample Team " + crn.String()},
		},
		OffenderEmail: "offender@example.org",
	}, nil
}
