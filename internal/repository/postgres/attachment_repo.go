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

type attachmentRepo struct {
	db *sqlx.DB
}

// NewAttachmentRepo creates a PostgreSQL-backed attachment metadata repository.
func NewAttachmentRepo(db *sqlx.DB) port.AttachmentRepository {
	return &attachmentRepo{db: db}
}

const attachmentColumns = `
	id, invoice_id, file_name, original_name, file_type, file_size,
	s3_bucket, s3_key, content_type, status, uploaded_by,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (r *attachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	query := `
		INSERT INTO attachments (` + attachmentColumns + `)
		VALUES (
			:id, :invoice_id, :file_name, :original_name, :file_type, :file_size,
			:s3_bucket, :s3_key, :content_type, :status, :uploaded_by,
			:created_at, :created_by, :updated_at, :updated_by, :deleted_at, :deleted_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, att); err != nil {
		return fmt.Errorf("attachmentRepo.Create: %w", err)
	}
	return nil
}

func (r *attachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &att, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("attachmentRepo.GetByID: %w", err)
	}
	return &att, nil
}

func (r *attachmentRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + ` FROM attachments
		WHERE invoice_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	attachments := []domain.Attachment{}
	if err := r.db.SelectContext(ctx, &attachments, query, invoiceID); err != nil {
		return nil, fmt.Errorf("attachmentRepo.ListByInvoice: %w", err)
	}
	return attachments, nil
}

func (r *attachmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AttachmentStatus) error {
	query := `
		UPDATE attachments SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("attachmentRepo.UpdateStatus: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func (r *attachmentRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	query := `
		UPDATE attachments SET deleted_at = $1, deleted_by = $2, updated_at = $1, updated_by = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), by, id)
	if err != nil {
		return fmt.Errorf("attachmentRepo.SoftDelete: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}
