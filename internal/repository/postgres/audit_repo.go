package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a PostgreSQL-backed audit trail repository. The table
// is append-only; there are no update or delete paths.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
		INSERT INTO invoice_audit_log (
			id, invoice_id, prev_status, new_status, user_id, comment, created_at
		) VALUES (
			:id, :invoice_id, :prev_status, :new_status, :user_id, :comment, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("auditRepo.Create: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM invoice_audit_log WHERE invoice_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, invoiceID); err != nil {
		return nil, 0, fmt.Errorf("auditRepo.ListByInvoice: count: %w", err)
	}

	query := `
		SELECT id, invoice_id, prev_status, new_status, user_id, comment, created_at
		FROM invoice_audit_log
		WHERE invoice_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	entries := []domain.AuditLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, invoiceID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("auditRepo.ListByInvoice: %w", err)
	}
	return entries, total, nil
}
