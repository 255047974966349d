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

type entityRepo struct {
	db *sqlx.DB
}

// NewEntityRepo creates a PostgreSQL-backed business entity repository.
func NewEntityRepo(db *sqlx.DB) port.EntityRepository {
	return &entityRepo{db: db}
}

const entityColumns = `
	id, name, nip, is_active,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (r *entityRepo) Create(ctx context.Context, entity *domain.BusinessEntity) error {
	query := `
		INSERT INTO business_entities (` + entityColumns + `)
		VALUES (
			:id, :name, :nip, :is_active,
			:created_at, :created_by, :updated_at, :updated_by, :deleted_at, :deleted_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, entity); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateEntityNIP
		}
		return fmt.Errorf("entityRepo.Create: %w", err)
	}
	return nil
}

func (r *entityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessEntity, error) {
	var entity domain.BusinessEntity
	query := `SELECT ` + entityColumns + ` FROM business_entities WHERE id = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &entity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("entityRepo.GetByID: %w", err)
	}
	return &entity, nil
}

func (r *entityRepo) GetByNIP(ctx context.Context, nip string) (*domain.BusinessEntity, error) {
	var entity domain.BusinessEntity
	query := `SELECT ` + entityColumns + ` FROM business_entities WHERE nip = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &entity, query, nip); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("entityRepo.GetByNIP: %w", err)
	}
	return &entity, nil
}

func (r *entityRepo) ListActive(ctx context.Context) ([]domain.BusinessEntity, error) {
	query := `
		SELECT ` + entityColumns + ` FROM business_entities
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY name ASC`

	entities := []domain.BusinessEntity{}
	if err := r.db.SelectContext(ctx, &entities, query); err != nil {
		return nil, fmt.Errorf("entityRepo.ListActive: %w", err)
	}
	return entities, nil
}

func (r *entityRepo) List(ctx context.Context, offset, limit int) ([]domain.BusinessEntity, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM business_entities WHERE deleted_at IS NULL`); err != nil {
		return nil, 0, fmt.Errorf("entityRepo.List: count: %w", err)
	}

	query := `
		SELECT ` + entityColumns + ` FROM business_entities
		WHERE deleted_at IS NULL
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	entities := []domain.BusinessEntity{}
	if err := r.db.SelectContext(ctx, &entities, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("entityRepo.List: %w", err)
	}
	return entities, total, nil
}

func (r *entityRepo) Update(ctx context.Context, entity *domain.BusinessEntity) error {
	query := `
		UPDATE business_entities SET
			name = :name,
			nip = :nip,
			is_active = :is_active,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, entity)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateEntityNIP
		}
		return fmt.Errorf("entityRepo.Update: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

func (r *entityRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	query := `
		UPDATE business_entities SET deleted_at = $1, deleted_by = $2, updated_at = $1, updated_by = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), by, id)
	if err != nil {
		return fmt.Errorf("entityRepo.SoftDelete: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}
