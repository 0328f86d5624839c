// Package notify sends outbound notifications. The channel is fire-and-forget
// by contract: implementations and callers log failures and never propagate
// them into lifecycle flows.
package notify

import (
	"context"
	"log"

	id "supervision/pkg/domain"
)

// Type names a notification template.
type Type string

const (
	TypeRegistrationConfirmed Type = "REGISTRATION_CONFIRMED"
	TypeSupervisionEnded      Type = "SUPERVISION_ENDED"
	TypeCheckinSubmitted      Type = "CHECKIN_SUBMITTED"
	TypeCheckinReminder       Type = "CHECKIN_REMINDER"
)

// Notifier delivers one notification to a recipient. The reference context
// (CRN plus optional check-in id) lets the template link back to the case.
type Notifier interface {
	Send(ctx context.Context, notificationType Type, recipient string, crn id.CRN, reference string)
}

// LogNotifier logs instead of sending; used when no channel endpoint is
// configured and as the fallback of last resort.
type LogNotifier struct {
	Log *log.Logger
}

func (n LogNotifier) Send(_ context.Context, notificationType Type, recipient string, crn id.CRN, reference string) {
	if n.Log != nil {
		n.Log.Printf("notification %s for crn=%s ref=%s (recipient withheld from log)",
			notificationType, crn, reference)
	}
	_ = recipient
}

// Recording is a test double capturing sends.
type Recording struct {
	Sent []Sent
}

// Sent is one captured notification.
type Sent struct {
	Type      Type
	Recipient string
	CRN       id.CRN
	Reference string
}

func (n *Recording) Send(_ context.Context, notificationType Type, recipient string, crn id.CRN, reference string) {
	n.Sent = append(n.Sent, Sent{Type: notificationType, Recipient: recipient, CRN: crn, Reference: reference})
}
