package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervision/internal/audit"
	auditstore "supervision/internal/audit/store"
	"supervision/internal/contacts"
	id "supervision/pkg/domain"
)

func resolvedDetails() *contacts.ContactDetails {
	return &contacts.ContactDetails{
		Practitioner: &contacts.Practitioner{
			Name:   "Pat Practitioner",
			Email:  "pat@example.org",
			Region: contacts.OrgUnit{Code: "R01", Description: "North"},
			Team:   contacts.OrgUnit{Code: "T07", Description: "Leeds Team"},
		},
	}
}

func fact(eventType audit.EventType, details *contacts.ContactDetails) audit.Fact {
	return audit.Fact{
		Event: audit.Event{
			EventType:      eventType,
			OccurredAt:     time.Now(),
			CRN:            id.CRN("X123456"),
			PractitionerID: "p1",
		},
		ContactDetails: details,
	}
}

func TestRecorder_EnrichesOrgUnits(t *testing.T) {
	store := auditstore.NewInMemory()
	recorder := audit.NewRecorder(store, nil)

	recorder.Record(context.Background(), fact(audit.EventSetupCompleted, resolvedDetails()))

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "R01", events[0].RegionCode)
	assert.Equal(t, "Leeds Team", events[0].TeamDescription)
}

func TestRecorder_SkipsUnresolvedContactDetails(t *testing.T) {
	store := auditstore.NewInMemory()
	recorder := audit.NewRecorder(store, nil)

	recorder.Record(context.Background(), fact(audit.EventSetupCompleted, nil))
	recorder.Record(context.Background(), fact(audit.EventSetupCompleted, &contacts.ContactDetails{}))

	assert.Empty(t, store.Events())
}

func TestRecorder_StoreFailureIsSwallowed(t *testing.T) {
	store := auditstore.NewInMemory()
	store.FailWrites = errors.New("db down")
	recorder := audit.NewRecorder(store, nil)

	// Must not panic or propagate.
	recorder.Record(context.Background(), fact(audit.EventCheckinSubmitted, resolvedDetails()))
	recorder.RecordBatch(context.Background(), []audit.Fact{fact(audit.EventCheckinExpired, resolvedDetails())})
}

func TestRecordBatch_FiltersAndWritesOnce(t *testing.T) {
	store := auditstore.NewInMemory()
	recorder := audit.NewRecorder(store, nil)

	facts := []audit.Fact{
		fact(audit.EventCheckinExpired, resolvedDetails()),
		fact(audit.EventCheckinExpired, nil),
		fact(audit.EventCheckinExpired, resolvedDetails()),
		fact(audit.EventCheckinExpired, &contacts.ContactDetails{}),
	}
	recorder.RecordBatch(context.Background(), facts)

	assert.Len(t, store.Events(), 2)
	assert.Equal(t, 1, store.BatchCalls())
}

func TestRecordBatch_AllUnresolvedWritesNothing(t *testing.T) {
	store := auditstore.NewInMemory()
	recorder := audit.NewRecorder(store, nil)

	recorder.RecordBatch(context.Background(), []audit.Fact{
		fact(audit.EventCheckinExpired, nil),
		fact(audit.EventCheckinExpired, nil),
	})

	assert.Empty(t, store.Events())
	assert.Equal(t, 0, store.BatchCalls())
}

func TestHoursBetween(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("rounds to two decimals", func(t *testing.T) {
		// 9m30s = 0.15833...h rounds up to 0.16.
		end := start.Add(9*time.Minute + 30*time.Second)
		got := audit.HoursBetween(&start, &end)
		require.NotNil(t, got)
		assert.Equal(t, 0.16, *got)
	})

	t.Run("rounds down below the midpoint", func(t *testing.T) {
		// 100m = 1.666...h rounds to 1.67; 98m = 1.6333...h rounds to 1.63.
		end := start.Add(98 * time.Minute)
		got := audit.HoursBetween(&start, &end)
		require.NotNil(t, got)
		assert.Equal(t, 1.63, *got)
	})

	t.Run("whole hours", func(t *testing.T) {
		end := start.Add(48 * time.Hour)
		got := audit.HoursBetween(&start, &end)
		require.NotNil(t, got)
		assert.Equal(t, 48.0, *got)
	})

	t.Run("nil bounds yield nil", func(t *testing.T) {
		assert.Nil(t, audit.HoursBetween(nil, &start))
		assert.Nil(t, audit.HoursBetween(&start, nil))
	})
}
