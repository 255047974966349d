package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
)

// RuleRepository defines the contract for assignment rule persistence.
// ListByDimension must return rules ordered by (priority asc, created_at asc,
// id asc) so evaluation order is stable across calls.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.AssignmentRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AssignmentRule, error)
	ListByDimension(ctx context.Context, dim domain.RuleDimension, activeOnly bool) ([]domain.AssignmentRule, error)
	Update(ctx context.Context, rule *domain.AssignmentRule) error
	SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error
}

// SyncRunRepository defines the contract for run history persistence.
// Claim must be an atomic compare-and-set: it inserts the run in running
// status and surfaces domain.ErrRunInProgress when another non-deleted run
// is already running.
type SyncRunRepository interface {
	Claim(ctx context.Context, run *domain.SyncRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error)
	GetRunning(ctx context.Context) (*domain.SyncRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.SyncRun, int, error)
	UpdateProgress(ctx context.Context, run *domain.SyncRun) error
	Finish(ctx context.Context, run *domain.SyncRun) error
	// LastCompletedAt returns the start time of the most recent run that
	// finished in a completed state, or the zero time when there is none.
	LastCompletedAt(ctx context.Context) (time.Time, error)
}

// EntityRepository defines the contract for business entity persistence.
type EntityRepository interface {
	Create(ctx context.Context, entity *domain.BusinessEntity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessEntity, error)
	GetByNIP(ctx context.Context, nip string) (*domain.BusinessEntity, error)
	ListActive(ctx context.Context) ([]domain.BusinessEntity, error)
	List(ctx context.Context, offset, limit int) ([]domain.BusinessEntity, int, error)
	Update(ctx context.Context, entity *domain.BusinessEntity) error
	SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error
}
