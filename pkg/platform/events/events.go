// Package events publishes domain events for downstream consumers (reporting,
// monitoring dashboards). Publishing is best-effort from the caller's point of
// view: the primary state mutation has already committed by the time an event
// is emitted.
package events

import (
	"context"
	"time"
)

// Type names a domain event on the wire.
type Type string

const (
	// TypeCheckinReceived is published when an offender submits a check-in.
	TypeCheckinReceived Type = "checkin.received"
	// TypeCheckinExpired is published when the sweep expires an overdue check-in.
	TypeCheckinExpired Type = "checkin.expired"
)

// Envelope wraps a payload with routing metadata.
type Envelope struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	// Key partitions events; use the offender's CRN so a consumer sees one
	// offender's events in order.
	Key     string `json:"key"`
	Payload any    `json:"payload"`
}

// Publisher emits domain events. Implementations must not block indefinitely;
// callers treat failures as log-and-continue.
type Publisher interface {
	Publish(ctx context.Context, eventType Type, key string, payload any) error
}
