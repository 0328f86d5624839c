package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"supervision/internal/audit"
	id "supervision/pkg/domain"
)

// Postgres writes audit facts to the event_audit table. Writes deliberately
// ignore any ambient transaction in the context: audits commit in their own
// local transaction, decoupled from the lifecycle mutation that triggered
// them.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const insertEvent = `
	INSERT INTO event_audit (
		id, event_type, occurred_at, crn, practitioner_id,
		region_code, region_description, team_code, team_description,
		checkin_id, checkin_status, checkin_due_date,
		time_to_submit_hours, time_to_review_hours, review_duration_hours,
		auto_id_check, manual_id_check, notes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`

func (s *Postgres) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, insertEvent, eventArgs(event)...)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// AppendBatch writes all events in one transaction: either the whole batch
// lands or none of it does.
func (s *Postgres) AppendBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, event := range events {
		if _, err := tx.ExecContext(ctx, insertEvent, eventArgs(event)...); err != nil {
			return fmt.Errorf("insert audit batch event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit batch: %w", err)
	}
	return nil
}

func eventArgs(event audit.Event) []any {
	var checkinID *uuid.UUID
	if event.CheckinID != nil {
		u := uuid.UUID(*event.CheckinID)
		checkinID = &u
	}
	return []any{
		uuid.New(),
		string(event.EventType),
		event.OccurredAt,
		event.CRN.String(),
		event.PractitionerID,
		event.RegionCode,
		event.RegionDescription,
		event.TeamCode,
		event.TeamDescription,
		checkinID,
		nullableString(event.CheckinStatus),
		event.CheckinDueDate,
		event.TimeToSubmitHours,
		event.TimeToReviewHours,
		event.ReviewDurationHours,
		nullableString(event.AutoIDCheck),
		nullableString(event.ManualIDCheck),
		event.Notes,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListByCRN returns audit facts for a case, newest first, paginated.
// This read path serves reporting only; the workflow never reads audits back.
func (s *Postgres) ListByCRN(ctx context.Context, crn id.CRN, limit, offset int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, occurred_at, crn, practitioner_id,
			   region_code, region_description, team_code, team_description,
			   checkin_id, checkin_status, checkin_due_date,
			   time_to_submit_hours, time_to_review_hours, review_duration_hours,
			   auto_id_check, manual_id_check, notes
		FROM event_audit
		WHERE crn = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`, crn.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event         audit.Event
			crnStr        string
			checkinID     *uuid.UUID
			checkinStatus sql.NullString
			autoCheck     sql.NullString
			manualCheck   sql.NullString
			dueDate       sql.NullTime
		)
		err := rows.Scan(
			&event.EventType,
			&event.OccurredAt,
			&crnStr,
			&event.PractitionerID,
			&event.RegionCode,
			&event.RegionDescription,
			&event.TeamCode,
			&event.TeamDescription,
			&checkinID,
			&checkinStatus,
			&dueDate,
			&event.TimeToSubmitHours,
			&event.TimeToReviewHours,
			&event.ReviewDurationHours,
			&autoCheck,
			&manualCheck,
			&event.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.CRN = id.CRN(crnStr)
		if checkinID != nil {
			cid := id.CheckinID(*checkinID)
			event.CheckinID = &cid
		}
		event.CheckinStatus = checkinStatus.String
		event.AutoIDCheck = autoCheck.String
		event.ManualIDCheck = manualCheck.String
		if dueDate.Valid {
			due := dueDate.Time
			event.CheckinDueDate = &due
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
