package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type ruleRepo struct {
	db *sqlx.DB
}

// NewRuleRepo creates a PostgreSQL-backed assignment rule repository.
func NewRuleRepo(db *sqlx.DB) port.RuleRepository {
	return &ruleRepo{db: db}
}

const ruleColumns = `
	id, dimension, name, priority, is_active,
	include_keywords, exclude_keywords,
	business_entity_id, direction,
	assigned_user_id, target_farm_ids, target_module,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (r *ruleRepo) Create(ctx context.Context, rule *domain.AssignmentRule) error {
	query := `
		INSERT INTO assignment_rules (` + ruleColumns + `)
		VALUES (
			:id, :dimension, :name, :priority, :is_active,
			:include_keywords, :exclude_keywords,
			:business_entity_id, :direction,
			:assigned_user_id, :target_farm_ids, :target_module,
			:created_at, :created_by, :updated_at, :updated_by, :deleted_at, :deleted_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("ruleRepo.Create: %w", err)
	}
	return nil
}

func (r *ruleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssignmentRule, error) {
	var rule domain.AssignmentRule
	query := `SELECT ` + ruleColumns + ` FROM assignment_rules WHERE id = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("ruleRepo.GetByID: %w", err)
	}
	return &rule, nil
}

func (r *ruleRepo) ListByDimension(ctx context.Context, dim domain.RuleDimension, activeOnly bool) ([]domain.AssignmentRule, error) {
	query := `
		SELECT ` + ruleColumns + ` FROM assignment_rules
		WHERE dimension = $1 AND deleted_at IS NULL`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	// Stable evaluation order: priority, then creation order, then id.
	query += ` ORDER BY priority ASC, created_at ASC, id ASC`

	rules := []domain.AssignmentRule{}
	if err := r.db.SelectContext(ctx, &rules, query, dim); err != nil {
		return nil, fmt.Errorf("ruleRepo.ListByDimension: %w", err)
	}
	return rules, nil
}

func (r *ruleRepo) Update(ctx context.Context, rule *domain.AssignmentRule) error {
	query := `
		UPDATE assignment_rules SET
			name = :name,
			priority = :priority,
			is_active = :is_active,
			include_keywords = :include_keywords,
			exclude_keywords = :exclude_keywords,
			business_entity_id = :business_entity_id,
			direction = :direction,
			assigned_user_id = :assigned_user_id,
			target_farm_ids = :target_farm_ids,
			target_module = :target_module,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("ruleRepo.Update: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func (r *ruleRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	query := `
		UPDATE assignment_rules SET deleted_at = $1, deleted_by = $2, updated_at = $1, updated_by = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), by, id)
	if err != nil {
		return fmt.Errorf("ruleRepo.SoftDelete: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}
