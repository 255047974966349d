package service

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/export"
	"farmbooks/internal/port"
)

// ManualAssignInput is the DTO for overriding assignment dimensions by hand.
// Only the provided dimensions are touched; each becomes a protected manual
// value that automatic re-classification will not overwrite.
type ManualAssignInput struct {
	AssignedUserID *uuid.UUID               `json:"assigned_user_id"`
	FarmIDs        []uuid.UUID              `json:"farm_ids"`
	Module         *domain.ProcessingModule `json:"module"`
}

// InvoiceService defines the invoice query and curation contract.
type InvoiceService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error)
	List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.InvoiceRecord, int, error)
	ManualAssign(ctx context.Context, id uuid.UUID, input ManualAssignInput, userID *uuid.UUID) (*domain.InvoiceRecord, error)
	Archive(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error)
	AuditTrail(ctx context.Context, id uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error)
	Relations(ctx context.Context, id uuid.UUID) ([]domain.InvoiceRelation, error)
	// ExportRegister renders the filtered invoices as an xlsx workbook.
	ExportRegister(ctx context.Context, filter port.InvoiceFilter) (*bytes.Buffer, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type invoiceService struct {
	invoices  port.InvoiceRepository
	relations port.RelationRepository
	audit     port.AuditRepository
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	invoices port.InvoiceRepository,
	relations port.RelationRepository,
	audit port.AuditRepository,
) InvoiceService {
	return &invoiceService{
		invoices:  invoices,
		relations: relations,
		audit:     audit,
	}
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *invoiceService) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	return s.invoices.List(ctx, filter, offset, limit)
}

func (s *invoiceService) ManualAssign(ctx context.Context, id uuid.UUID, input ManualAssignInput, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.AssignedUserID != nil {
		inv.AssignedUserID = input.AssignedUserID
		inv.AssignedUserSource = domain.AssignmentSourceManual
		inv.AssignedUserRuleID = nil
	}
	if input.FarmIDs != nil {
		inv.FarmIDs = domain.UUIDList(input.FarmIDs)
		inv.FarmSource = domain.AssignmentSourceManual
		inv.FarmRuleID = nil
	}
	if input.Module != nil {
		inv.Module = *input.Module
		inv.ModuleSource = domain.AssignmentSourceManual
		inv.ModuleRuleID = nil
	}

	inv.NeedsTriage = inv.AssignedUserSource == domain.AssignmentSourceNone ||
		inv.FarmSource == domain.AssignmentSourceNone ||
		inv.ModuleSource == domain.AssignmentSourceNone

	prev := inv.Status
	if inv.Status == domain.InvoiceStatusReceived && !inv.NeedsTriage {
		inv.Status = domain.InvoiceStatusAssigned
	}

	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = userID
	if err := s.invoices.UpdateAssignment(ctx, inv); err != nil {
		return nil, err
	}

	if inv.Status != prev {
		entry := &domain.AuditLogEntry{
			ID:         uuid.New(),
			InvoiceID:  inv.ID,
			PrevStatus: prev,
			NewStatus:  inv.Status,
			UserID:     userID,
			Comment:    "manual assignment",
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (s *invoiceService) Archive(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := inv.Status
	if prev == domain.InvoiceStatusArchived {
		return inv, nil
	}
	if err := s.invoices.UpdateStatus(ctx, id, domain.InvoiceStatusArchived, userID); err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatusArchived

	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		InvoiceID:  inv.ID,
		PrevStatus: prev,
		NewStatus:  domain.InvoiceStatusArchived,
		UserID:     userID,
		Comment:    "archived",
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) AuditTrail(ctx context.Context, id uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error) {
	if _, err := s.invoices.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.audit.ListByInvoice(ctx, id, offset, limit)
}

func (s *invoiceService) Relations(ctx context.Context, id uuid.UUID) ([]domain.InvoiceRelation, error) {
	if _, err := s.invoices.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.relations.ListByInvoice(ctx, id)
}

func (s *invoiceService) ExportRegister(ctx context.Context, filter port.InvoiceFilter) (*bytes.Buffer, error) {
	const pageSize = 500

	var all []domain.InvoiceRecord
	offset := 0
	for {
		page, total, err := s.invoices.List(ctx, filter, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		offset += len(page)
		if offset >= total || len(page) == 0 {
			break
		}
	}

	return export.WriteRegister(all)
}

func (s *invoiceService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.invoices.SoftDelete(ctx, id, userID)
}
