// Package domain defines the typed identifiers shared across services.
// Wrapping uuid.UUID in distinct types makes cross-entity ID mix-ups a
// compile error rather than a runtime bug.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "supervision/pkg/domain-errors"
)

type (
	// OffenderID identifies a person under supervision.
	OffenderID uuid.UUID
	// SetupID identifies a transient pre-verification setup record.
	SetupID uuid.UUID
	// CheckinID identifies a single check-in cycle.
	CheckinID uuid.UUID
)

func (id OffenderID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SetupID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CheckinID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id OffenderID) String() string { return uuid.UUID(id).String() }
func (id SetupID) String() string    { return uuid.UUID(id).String() }
func (id CheckinID) String() string  { return uuid.UUID(id).String() }

// The ID types marshal as uuid strings. Defined types do not inherit
// uuid.UUID's text methods, so each carries its own pair.

func (id OffenderID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SetupID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id CheckinID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *OffenderID) UnmarshalText(b []byte) error {
	parsed, err := ParseOffenderID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SetupID) UnmarshalText(b []byte) error {
	parsed, err := ParseSetupID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CheckinID) UnmarshalText(b []byte) error {
	parsed, err := ParseCheckinID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseOffenderID parses and validates an offender ID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseOffenderID(s string) (OffenderID, error) {
	u, err := parseUUID(s, "offender id")
	return OffenderID(u), err
}

// ParseSetupID parses and validates a setup ID.
func ParseSetupID(s string) (SetupID, error) {
	u, err := parseUUID(s, "setup id")
	return SetupID(u), err
}

// ParseCheckinID parses and validates a check-in ID.
func ParseCheckinID(s string) (CheckinID, error) {
	u, err := parseUUID(s, "checkin id")
	return CheckinID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid uuid", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil uuid", what)
	}
	return u, nil
}

// CRN is the stable external case reference for an offender. It is immutable
// after offender creation.
type CRN string

// ParseCRN validates a case reference number. CRNs are uppercase alphanumeric
// and between 5 and 12 characters; callers supply them from upstream case data.
func ParseCRN(s string) (CRN, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if l := len(s); l < 5 || l > 12 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "crn must be 5-12 characters")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", dErrors.New(dErrors.CodeInvalidInput, "crn must be alphanumeric")
		}
	}
	return CRN(s), nil
}

func (c CRN) String() string { return string(c) }
