package offender

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
	"supervision/pkg/platform/tx"
)

// Postgres persists offenders. All statements run against the ambient
// transaction when one is present in the context.
//
// Schema (migrations/002_offenders.sql):
//
//	CREATE TABLE offenders (
//	    id               UUID PRIMARY KEY,
//	    crn              TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    first_checkin    TIMESTAMPTZ NOT NULL,
//	    interval_seconds BIGINT NOT NULL,
//	    practitioner_id  TEXT NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    created_by       TEXT NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX offenders_active_crn ON offenders (crn)
//	    WHERE status <> 'INACTIVE';
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const offenderColumns = `id, crn, status, first_checkin, interval_seconds, practitioner_id, created_at, created_by, updated_at`

func (s *Postgres) Create(ctx context.Context, o *models.Offender) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO offenders (`+offenderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID.String(), o.CRN.String(), string(o.Status), o.FirstCheckin,
		int64(o.Interval.Duration()/time.Second), o.PractitionerID,
		o.CreatedAt, o.CreatedBy, o.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert offender: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, offenderID id.OffenderID) (*models.Offender, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT `+offenderColumns+`
		FROM offenders
		WHERE id = $1`,
		offenderID.String(),
	)
	return scanOffender(row)
}

func (s *Postgres) Update(ctx context.Context, o *models.Offender) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE offenders
		SET status = $2, first_checkin = $3, interval_seconds = $4, updated_at = $5
		WHERE id = $1`,
		o.ID.String(), string(o.Status), o.FirstCheckin,
		int64(o.Interval.Duration()/time.Second), o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update offender: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update offender rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, limit, offset int) ([]*models.Offender, error) {
	if limit <= 0 {
		limit = 50
	}
	exec := tx.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+offenderColumns+`
		FROM offenders
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list offenders: %w", err)
	}
	defer rows.Close()
	return collectOffenders(rows)
}

// DueCandidates computes the next schedule point at or after `from` in SQL
// and keeps offenders whose point falls before `to`. It intentionally does
// not join against check-ins: an open check-in due outside [from, to) must
// not hide the offender from this window.
func (s *Postgres) DueCandidates(ctx context.Context, from, to time.Time) ([]*models.Offender, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+offenderColumns+`
		FROM offenders
		WHERE status = 'VERIFIED'
		  AND first_checkin + make_interval(secs =>
		        GREATEST(CEIL(EXTRACT(EPOCH FROM ($1::timestamptz - first_checkin)) / interval_seconds), 0)
		        * interval_seconds) < $2
		ORDER BY created_at, id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query due candidates: %w", err)
	}
	defer rows.Close()
	return collectOffenders(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffender(row rowScanner) (*models.Offender, error) {
	var (
		o               models.Offender
		rawID, rawCRN   string
		status          string
		intervalSeconds int64
	)
	err := row.Scan(&rawID, &rawCRN, &status, &o.FirstCheckin, &intervalSeconds,
		&o.PractitionerID, &o.CreatedAt, &o.CreatedBy, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan offender: %w", err)
	}
	if o.ID, err = id.ParseOffenderID(rawID); err != nil {
		return nil, fmt.Errorf("stored offender id: %w", err)
	}
	if o.CRN, err = id.ParseCRN(rawCRN); err != nil {
		return nil, fmt.Errorf("stored offender crn: %w", err)
	}
	o.Status = models.Status(status)
	if o.Interval, err = models.IntervalFromDuration(time.Duration(intervalSeconds) * time.Second); err != nil {
		return nil, fmt.Errorf("stored offender interval: %w", err)
	}
	return &o, nil
}

func collectOffenders(rows *sql.Rows) ([]*models.Offender, error) {
	var out []*models.Offender
	for rows.Next() {
		o, err := scanOffender(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offenders: %w", err)
	}
	return out, nil
}
