package audit

import (
	"context"
	"log"

	"supervision/internal/contacts"
	id "supervision/pkg/domain"
)

// Store is the append-only audit sink. Implementations write inside their own
// local transaction, independent of any transaction the caller holds.
type Store interface {
	Append(ctx context.Context, event Event) error
	AppendBatch(ctx context.Context, events []Event) error
}

// Fact is the raw material for one audit row: the lifecycle facts plus the
// contact details the caller already resolved (nil when resolution failed).
type Fact struct {
	Event          Event
	ContactDetails *contacts.ContactDetails
}

// Recorder turns lifecycle events into audit rows, best-effort. Failure modes
// (unresolvable contact details, a store error) are logged through the PII
// sanitizer and never propagate: a missing audit row must not affect the
// caller's result.
type Recorder struct {
	store Store
	log   *log.Logger
}

func NewRecorder(store Store, logger *log.Logger) *Recorder {
	return &Recorder{store: store, log: logger}
}

// Record writes a single audit fact. Returns nothing: by contract the caller
// cannot observe audit failure.
func (r *Recorder) Record(ctx context.Context, fact Fact) {
	event, ok := r.resolve(fact)
	if !ok {
		return
	}
	if err := r.store.Append(ctx, event); err != nil {
		r.warn(err.Error(), event.CRN, checkinRef(event))
	}
}

// RecordBatch writes all resolvable facts in a single transactional batch.
// Unresolvable facts are skipped with a warning and excluded; if none remain,
// no write happens at all.
func (r *Recorder) RecordBatch(ctx context.Context, facts []Fact) {
	events := make([]Event, 0, len(facts))
	for _, fact := range facts {
		if event, ok := r.resolve(fact); ok {
			events = append(events, event)
		}
	}
	if len(events) == 0 {
		return
	}
	if err := r.store.AppendBatch(ctx, events); err != nil {
		r.warn(err.Error(), events[0].CRN, "")
	}
}

// resolve enriches the event with org unit facts from the practitioner's
// contact details. An absent practitioner means the event cannot be audited.
func (r *Recorder) resolve(fact Fact) (Event, bool) {
	if fact.ContactDetails == nil || fact.ContactDetails.Practitioner == nil {
		r.warn("skipping "+string(fact.Event.EventType)+" audit: practitioner contact details unresolved",
			fact.Event.CRN, checkinRef(fact.Event))
		return Event{}, false
	}
	event := fact.Event
	practitioner := fact.ContactDetails.Practitioner
	event.RegionCode = practitioner.Region.Code
	event.RegionDescription = practitioner.Region.Description
	event.TeamCode = practitioner.Team.Code
	event.TeamDescription = practitioner.Team.Description
	return event, true
}

func (r *Recorder) warn(message string, crn id.CRN, uuid string) {
	if r.log != nil {
		r.log.Printf("WARN %s", Sanitize(message, crn.String(), uuid))
	}
}

func checkinRef(event Event) string {
	if event.CheckinID == nil {
		return ""
	}
	return event.CheckinID.String()
}
