package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type relationRepo struct {
	db *sqlx.DB
}

// NewRelationRepo creates a PostgreSQL-backed invoice relation repository.
func NewRelationRepo(db *sqlx.DB) port.RelationRepository {
	return &relationRepo{db: db}
}

func (r *relationRepo) Create(ctx context.Context, rel *domain.InvoiceRelation) error {
	query := `
		INSERT INTO invoice_relations (
			id, source_invoice_id, target_invoice_id, relation_type, created_at, created_by
		) VALUES (
			:id, :source_invoice_id, :target_invoice_id, :relation_type, :created_at, :created_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, rel); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrRelationExists
		}
		return fmt.Errorf("relationRepo.Create: %w", err)
	}
	return nil
}

func (r *relationRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceRelation, error) {
	query := `
		SELECT id, source_invoice_id, target_invoice_id, relation_type, created_at, created_by
		FROM invoice_relations
		WHERE source_invoice_id = $1 OR target_invoice_id = $1
		ORDER BY created_at ASC`

	relations := []domain.InvoiceRelation{}
	if err := r.db.SelectContext(ctx, &relations, query, invoiceID); err != nil {
		return nil, fmt.Errorf("relationRepo.ListByInvoice: %w", err)
	}
	return relations, nil
}

func (r *relationRepo) ExistsFromSource(ctx context.Context, sourceInvoiceID uuid.UUID, relType domain.RelationType) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoice_relations
			WHERE source_invoice_id = $1 AND relation_type = $2
		)`

	if err := r.db.GetContext(ctx, &exists, query, sourceInvoiceID, relType); err != nil {
		return false, fmt.Errorf("relationRepo.ExistsFromSource: %w", err)
	}
	return exists, nil
}
