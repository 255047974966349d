package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type syncRunRepo struct {
	db *sqlx.DB
}

// NewSyncRunRepo creates a PostgreSQL-backed synchronization run repository.
func NewSyncRunRepo(db *sqlx.DB) port.SyncRunRepository {
	return &syncRunRepo{db: db}
}

const syncRunColumns = `
	id, status, started_at, completed_at, duration_ms,
	fetched, persisted, errored,
	error_summary, manual, triggered_by,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

// Claim inserts the run in running status. A partial unique index on
// status = 'running' makes the insert the compare-and-set: the loser of a
// concurrent start gets a uniqueness violation, reported as ErrRunInProgress.
func (r *syncRunRepo) Claim(ctx context.Context, run *domain.SyncRun) error {
	query := `
		INSERT INTO sync_runs (` + syncRunColumns + `)
		VALUES (
			:id, :status, :started_at, :completed_at, :duration_ms,
			:fetched, :persisted, :errored,
			:error_summary, :manual, :triggered_by,
			:created_at, :created_by, :updated_at, :updated_by, :deleted_at, :deleted_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrRunInProgress
		}
		return fmt.Errorf("syncRunRepo.Claim: %w", err)
	}
	return nil
}

func (r *syncRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error) {
	var run domain.SyncRun
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("syncRunRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *syncRunRepo) GetRunning(ctx context.Context) (*domain.SyncRun, error) {
	var run domain.SyncRun
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE status = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &run, query, domain.RunStatusRunning); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("syncRunRepo.GetRunning: %w", err)
	}
	return &run, nil
}

func (r *syncRunRepo) List(ctx context.Context, offset, limit int) ([]domain.SyncRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sync_runs WHERE deleted_at IS NULL`); err != nil {
		return nil, 0, fmt.Errorf("syncRunRepo.List: count: %w", err)
	}

	query := `
		SELECT ` + syncRunColumns + ` FROM sync_runs
		WHERE deleted_at IS NULL
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2`

	runs := []domain.SyncRun{}
	if err := r.db.SelectContext(ctx, &runs, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("syncRunRepo.List: %w", err)
	}
	return runs, total, nil
}

func (r *syncRunRepo) UpdateProgress(ctx context.Context, run *domain.SyncRun) error {
	query := `
		UPDATE sync_runs SET
			fetched = :fetched,
			persisted = :persisted,
			errored = :errored,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("syncRunRepo.UpdateProgress: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *syncRunRepo) Finish(ctx context.Context, run *domain.SyncRun) error {
	query := `
		UPDATE sync_runs SET
			status = :status,
			completed_at = :completed_at,
			duration_ms = :duration_ms,
			fetched = :fetched,
			persisted = :persisted,
			errored = :errored,
			error_summary = :error_summary,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("syncRunRepo.Finish: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *syncRunRepo) LastCompletedAt(ctx context.Context) (time.Time, error) {
	var startedAt sql.NullTime
	query := `
		SELECT MAX(started_at) FROM sync_runs
		WHERE status IN ($1, $2) AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &startedAt, query,
		domain.RunStatusCompleted, domain.RunStatusCompletedWithErrors)
	if err != nil {
		return time.Time{}, fmt.Errorf("syncRunRepo.LastCompletedAt: %w", err)
	}
	if !startedAt.Valid {
		return time.Time{}, nil
	}
	return startedAt.Time, nil
}
