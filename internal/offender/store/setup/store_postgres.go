package setup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/sentinel"
	"supervision/pkg/platform/tx"
)

// Postgres persists pending setups.
//
// Schema (migrations/003_setups.sql):
//
//	CREATE TABLE offender_setups (
//	    id              UUID PRIMARY KEY,
//	    offender_id     UUID NOT NULL REFERENCES offenders (id),
//	    practitioner_id TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    started_at      TIMESTAMPTZ
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, setup *models.Setup) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO offender_setups (id, offender_id, practitioner_id, created_at, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		setup.ID.String(), setup.OffenderID.String(), setup.PractitionerID,
		setup.CreatedAt, setup.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert setup: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, setupID id.SetupID) (*models.Setup, error) {
	exec := tx.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, offender_id, practitioner_id, created_at, started_at
		FROM offender_setups
		WHERE id = $1`,
		setupID.String(),
	)

	var (
		setup           models.Setup
		rawID, rawOffID string
		startedAt       sql.NullTime
	)
	err := row.Scan(&rawID, &rawOffID, &setup.PractitionerID, &setup.CreatedAt, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan setup: %w", err)
	}
	if setup.ID, err = id.ParseSetupID(rawID); err != nil {
		return nil, fmt.Errorf("stored setup id: %w", err)
	}
	if setup.OffenderID, err = id.ParseOffenderID(rawOffID); err != nil {
		return nil, fmt.Errorf("stored setup offender id: %w", err)
	}
	if startedAt.Valid {
		setup.StartedAt = &startedAt.Time
	}
	return &setup, nil
}

// MarkStarted records the first time the offender opened the setup link.
// Subsequent opens keep the original timestamp.
func (s *Postgres) MarkStarted(ctx context.Context, setupID id.SetupID, at time.Time) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE offender_setups
		SET started_at = COALESCE(started_at, $2)
		WHERE id = $1`,
		setupID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("mark setup started: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark setup started rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, setupID id.SetupID) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `DELETE FROM offender_setups WHERE id = $1`, setupID.String())
	if err != nil {
		return fmt.Errorf("delete setup: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete setup rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
