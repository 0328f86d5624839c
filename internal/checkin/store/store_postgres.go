package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"supervision/internal/checkin/models"
	"supervision/internal/verification"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
	"supervision/pkg/platform/tx"
)

// Postgres persists check-ins. All statements run against the ambient
// transaction when one is present in the context.
//
// Schema (migrations/004_checkins.sql):
//
//	CREATE TABLE checkins (
//	    id                UUID PRIMARY KEY,
//	    offender_id       UUID NOT NULL REFERENCES offenders (id),
//	    status            TEXT NOT NULL,
//	    due_date          TIMESTAMPTZ NOT NULL,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    created_by        TEXT NOT NULL,
//	    submitted_at      TIMESTAMPTZ,
//	    review_started_at TIMESTAMPTZ,
//	    reviewed_at       TIMESTAMPTZ,
//	    reviewed_by       TEXT,
//	    auto_id_check     TEXT,
//	    manual_id_check   TEXT,
//	    snapshot_keys     TEXT[] NOT NULL DEFAULT '{}',
//	    survey_response   JSONB
//	);
//	CREATE INDEX checkins_open_due ON checkins (due_date)
//	    WHERE status IN ('CREATED', 'SUBMITTED');
//	CREATE UNIQUE INDEX checkins_offender_due ON checkins (offender_id, due_date);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const checkinColumns = `id, offender_id, status, due_date, created_at, created_by,
	submitted_at, review_started_at, reviewed_at, reviewed_by,
	auto_id_check, manual_id_check, snapshot_keys, survey_response`

func (s *Postgres) Create(ctx context.Context, c *models.Checkin) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO checkins (`+checkinColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID.String(), c.OffenderID.String(), string(c.Status), c.DueDate,
		c.CreatedAt, c.CreatedBy, c.SubmittedAt, c.ReviewStartedAt,
		c.ReviewedAt, c.ReviewedBy,
		outcomeString(c.AutoIDCheck), outcomeString(c.ManualIDCheck),
		pq.Array(c.SnapshotKeys), nullableBytes(c.SurveyResponse),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert checkin: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, checkinID id.CheckinID) (*models.Checkin, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE id = $1`,
		checkinID.String(),
	)
	return scanCheckin(row)
}

func (s *Postgres) Update(ctx context.Context, c *models.Checkin) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE checkins
		SET status = $2, submitted_at = $3, review_started_at = $4,
		    reviewed_at = $5, reviewed_by = $6, auto_id_check = $7,
		    manual_id_check = $8, snapshot_keys = $9, survey_response = $10
		WHERE id = $1`,
		c.ID.String(), string(c.Status), c.SubmittedAt, c.ReviewStartedAt,
		c.ReviewedAt, c.ReviewedBy,
		outcomeString(c.AutoIDCheck), outcomeString(c.ManualIDCheck),
		pq.Array(c.SnapshotKeys), nullableBytes(c.SurveyResponse),
	)
	if err != nil {
		return fmt.Errorf("update checkin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update checkin rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByOffender(ctx context.Context, offenderID id.OffenderID, limit, offset int) ([]*models.Checkin, error) {
	if limit <= 0 {
		limit = 50
	}
	exec := tx.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE offender_id = $1
		ORDER BY due_date, id
		LIMIT $2 OFFSET $3`,
		offenderID.String(), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()
	return collectCheckins(rows)
}

func (s *Postgres) ListOpenDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Checkin, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE status IN ('CREATED', 'SUBMITTED') AND due_date < $1
		ORDER BY due_date, id`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list overdue checkins: %w", err)
	}
	defer rows.Close()
	return collectCheckins(rows)
}

func (s *Postgres) ListCreatedDueBetween(ctx context.Context, from, to time.Time) ([]*models.Checkin, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE status = 'CREATED' AND due_date >= $1 AND due_date < $2
		ORDER BY due_date, id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	defer rows.Close()
	return collectCheckins(rows)
}

func (s *Postgres) ExistsForOffenderDue(ctx context.Context, offenderID id.OffenderID, dueDate time.Time) (bool, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	var exists bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM checkins WHERE offender_id = $1 AND due_date = $2
		)`,
		offenderID.String(), dueDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checkin existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckin(row rowScanner) (*models.Checkin, error) {
	var (
		c               models.Checkin
		rawID, rawOffID string
		status          string
		reviewedBy      sql.NullString
		autoCheck       sql.NullString
		manualCheck     sql.NullString
		snapshotKeys    pq.StringArray
		surveyResponse  []byte
	)
	err := row.Scan(&rawID, &rawOffID, &status, &c.DueDate, &c.CreatedAt, &c.CreatedBy,
		&c.SubmittedAt, &c.ReviewStartedAt, &c.ReviewedAt, &reviewedBy,
		&autoCheck, &manualCheck, &snapshotKeys, &surveyResponse)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan checkin: %w", err)
	}
	if c.ID, err = id.ParseCheckinID(rawID); err != nil {
		return nil, fmt.Errorf("stored checkin id: %w", err)
	}
	if c.OffenderID, err = id.ParseOffenderID(rawOffID); err != nil {
		return nil, fmt.Errorf("stored checkin offender id: %w", err)
	}
	c.Status = models.CheckinStatus(status)
	if reviewedBy.Valid {
		c.ReviewedBy = &reviewedBy.String
	}
	c.AutoIDCheck = outcomeFromString(autoCheck)
	c.ManualIDCheck = outcomeFromString(manualCheck)
	c.SnapshotKeys = snapshotKeys
	c.SurveyResponse = surveyResponse
	return &c, nil
}

func collectCheckins(rows *sql.Rows) ([]*models.Checkin, error) {
	var out []*models.Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkins: %w", err)
	}
	return out, nil
}

func outcomeString(o *verification.Outcome) sql.NullString {
	if o == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*o), Valid: true}
}

func outcomeFromString(ns sql.NullString) *verification.Outcome {
	if !ns.Valid {
		return nil
	}
	o := verification.Outcome(ns.String)
	return &o
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
