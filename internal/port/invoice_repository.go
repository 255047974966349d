package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
)

// InvoiceFilter narrows invoice queries. Nil fields are ignored.
type InvoiceFilter struct {
	Status           *domain.InvoiceStatus
	Direction        *domain.InvoiceDirection
	BusinessEntityID *uuid.UUID
	AssignedUserID   *uuid.UUID
	FarmID           *uuid.UUID
	Module           *domain.ProcessingModule
	NeedsTriage      *bool
	RequiresLinking  *bool
	IssuedFrom       *time.Time
	IssuedTo         *time.Time
}

// InvoiceRepository defines the contract for invoice persistence. All reads
// exclude soft-deleted rows; Create must surface a KSeF-number uniqueness
// violation as domain.ErrDuplicateInvoice so the pipeline can treat a
// write-time race identically to a pre-check duplicate.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.InvoiceRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error)
	GetByKSeFNumber(ctx context.Context, ksefNumber string) (*domain.InvoiceRecord, error)
	List(ctx context.Context, filter InvoiceFilter, offset, limit int) ([]domain.InvoiceRecord, int, error)
	UpdateAssignment(ctx context.Context, inv *domain.InvoiceRecord) error
	UpdateLinking(ctx context.Context, inv *domain.InvoiceRecord) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus, by *uuid.UUID) error
	// FindByOriginalNumber returns non-deleted invoices whose own invoice
	// number equals number and whose counterparty matches nip.
	FindByOriginalNumber(ctx context.Context, nip, number string, excludeID uuid.UUID) ([]domain.InvoiceRecord, error)
	// ListRequiringLinking returns invoices with a pending linking decision.
	ListRequiringLinking(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error)
	// MarkReminded increments the reminder counter and stamps the timestamp.
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error
}

// RelationRepository defines the contract for invoice relation persistence.
// Create must surface a (source, target) pair violation as
// domain.ErrRelationExists.
type RelationRepository interface {
	Create(ctx context.Context, rel *domain.InvoiceRelation) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceRelation, error)
	ExistsFromSource(ctx context.Context, sourceInvoiceID uuid.UUID, relType domain.RelationType) (bool, error)
}

// AuditRepository defines the contract for the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error)
}

// AttachmentRepository defines the contract for attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Attachment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AttachmentStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error
}
