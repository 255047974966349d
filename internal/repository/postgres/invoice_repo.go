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

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a PostgreSQL-backed invoice repository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `
	id, ksef_number, invoice_number, issue_date,
	seller_nip, seller_name, buyer_nip, buyer_name,
	direction, document_type,
	currency, gross_amount, net_amount, vat_amount,
	original_currency, original_gross, original_net, original_vat, exchange_rate,
	line_text, raw_xml,
	status, payment_status, payment_type,
	business_entity_id,
	assigned_user_id, assigned_user_source, assigned_user_rule_id,
	farm_ids, farm_source, farm_rule_id,
	module, module_source, module_rule_id,
	needs_triage,
	requires_linking, linking_accepted, reminder_count, last_reminder_at, original_number,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.InvoiceRecord) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (
			:id, :ksef_number, :invoice_number, :issue_date,
			:seller_nip, :seller_name, :buyer_nip, :buyer_name,
			:direction, :document_type,
			:currency, :gross_amount, :net_amount, :vat_amount,
			:original_currency, :original_gross, :original_net, :original_vat, :exchange_rate,
			:line_text, :raw_xml,
			:status, :payment_status, :payment_type,
			:business_entity_id,
			:assigned_user_id, :assigned_user_source, :assigned_user_rule_id,
			:farm_ids, :farm_source, :farm_rule_id,
			:module, :module_source, :module_rule_id,
			:needs_triage,
			:requires_linking, :linking_accepted, :reminder_count, :last_reminder_at, :original_number,
			:created_at, :created_by, :updated_at, :updated_by, :deleted_at, :deleted_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateInvoice
		}
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	var inv domain.InvoiceRecord
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &inv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) GetByKSeFNumber(ctx context.Context, ksefNumber string) (*domain.InvoiceRecord, error) {
	var inv domain.InvoiceRecord
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ksef_number = $1 AND deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &inv, query, ksefNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByKSeFNumber: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		where = append(where, "status = "+arg(*filter.Status))
	}
	if filter.Direction != nil {
		where = append(where, "direction = "+arg(*filter.Direction))
	}
	if filter.BusinessEntityID != nil {
		where = append(where, "business_entity_id = "+arg(*filter.BusinessEntityID))
	}
	if filter.AssignedUserID != nil {
		where = append(where, "assigned_user_id = "+arg(*filter.AssignedUserID))
	}
	if filter.FarmID != nil {
		where = append(where, "farm_ids @> "+arg(domain.UUIDList{*filter.FarmID}))
	}
	if filter.Module != nil {
		where = append(where, "module = "+arg(*filter.Module))
	}
	if filter.NeedsTriage != nil {
		where = append(where, "needs_triage = "+arg(*filter.NeedsTriage))
	}
	if filter.RequiresLinking != nil {
		where = append(where, "requires_linking = "+arg(*filter.RequiresLinking))
	}
	if filter.IssuedFrom != nil {
		where = append(where, "issue_date >= "+arg(*filter.IssuedFrom))
	}
	if filter.IssuedTo != nil {
		where = append(where, "issue_date <= "+arg(*filter.IssuedTo))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM invoices WHERE ` + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: count: %w", err)
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + clause +
		` ORDER BY issue_date DESC, ksef_number DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	invoices := []domain.InvoiceRecord{}
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) UpdateAssignment(ctx context.Context, inv *domain.InvoiceRecord) error {
	query := `
		UPDATE invoices SET
			assigned_user_id = :assigned_user_id,
			assigned_user_source = :assigned_user_source,
			assigned_user_rule_id = :assigned_user_rule_id,
			farm_ids = :farm_ids,
			farm_source = :farm_source,
			farm_rule_id = :farm_rule_id,
			module = :module,
			module_source = :module_source,
			module_rule_id = :module_rule_id,
			needs_triage = :needs_triage,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateAssignment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepo) UpdateLinking(ctx context.Context, inv *domain.InvoiceRecord) error {
	query := `
		UPDATE invoices SET
			requires_linking = :requires_linking,
			linking_accepted = :linking_accepted,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateLinking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus, by *uuid.UUID) error {
	query := `
		UPDATE invoices SET status = $1, updated_at = $2, updated_by = $3
		WHERE id = $4 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), by, id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateStatus: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepo) FindByOriginalNumber(ctx context.Context, nip, number string, excludeID uuid.UUID) ([]domain.InvoiceRecord, error) {
	query := `
		SELECT ` + invoiceColumns + ` FROM invoices
		WHERE invoice_number = $1
		  AND (seller_nip = $2 OR buyer_nip = $2)
		  AND id != $3
		  AND deleted_at IS NULL
		ORDER BY issue_date ASC`

	invoices := []domain.InvoiceRecord{}
	if err := r.db.SelectContext(ctx, &invoices, query, number, nip, excludeID); err != nil {
		return nil, fmt.Errorf("invoiceRepo.FindByOriginalNumber: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) ListRequiringLinking(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM invoices
		WHERE requires_linking = TRUE AND linking_accepted = FALSE AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListRequiringLinking: count: %w", err)
	}

	query := `
		SELECT ` + invoiceColumns + ` FROM invoices
		WHERE requires_linking = TRUE AND linking_accepted = FALSE AND deleted_at IS NULL
		ORDER BY issue_date ASC, ksef_number ASC
		LIMIT $1 OFFSET $2`

	invoices := []domain.InvoiceRecord{}
	if err := r.db.SelectContext(ctx, &invoices, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListRequiringLinking: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE invoices SET reminder_count = reminder_count + 1, last_reminder_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkReminded: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	query := `
		UPDATE invoices SET deleted_at = $1, deleted_by = $2, updated_at = $1, updated_by = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), by, id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SoftDelete: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}
