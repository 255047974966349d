package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/parser"
	"farmbooks/internal/port"
	"farmbooks/internal/rules"
)

// IngestResult is the per-document outcome of the ingestion pipeline.
// Invoice is set only for the created outcome; Reason explains rejections.
type IngestResult struct {
	Outcome domain.IngestOutcome
	Invoice *domain.InvoiceRecord
	Reason  string
}

// IngestService turns raw exchange documents into classified invoice records.
type IngestService interface {
	// Ingest runs one document through parse, entity resolution, dedupe,
	// classification, persistence, and linking evaluation. The returned error
	// is reserved for infrastructure failures; document-level problems are
	// expressed through the result's outcome.
	Ingest(ctx context.Context, doc port.ExchangeDocument, snap *rules.Snapshot) (*IngestResult, error)
	// RuleSnapshot loads a consistent view of all active rule collections.
	RuleSnapshot(ctx context.Context) (*rules.Snapshot, error)
	// Reclassify re-runs rule evaluation on a stored invoice with the current
	// rule collections. Manual assignments are preserved.
	Reclassify(ctx context.Context, invoiceID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error)
}

type ingestService struct {
	invoices port.InvoiceRepository
	entities port.EntityRepository
	rules    port.RuleRepository
	audit    port.AuditRepository
	linking  LinkingService
}

// NewIngestService creates a new IngestService implementation.
func NewIngestService(
	invoices port.InvoiceRepository,
	entities port.EntityRepository,
	ruleRepo port.RuleRepository,
	audit port.AuditRepository,
	linking LinkingService,
) IngestService {
	return &ingestService{
		invoices: invoices,
		entities: entities,
		rules:    ruleRepo,
		audit:    audit,
		linking:  linking,
	}
}

func (s *ingestService) RuleSnapshot(ctx context.Context) (*rules.Snapshot, error) {
	snap := &rules.Snapshot{}
	var err error
	if snap.User, err = s.rules.ListByDimension(ctx, domain.DimensionUser, true); err != nil {
		return nil, fmt.Errorf("ingestService.RuleSnapshot: %w", err)
	}
	if snap.Farm, err = s.rules.ListByDimension(ctx, domain.DimensionFarm, true); err != nil {
		return nil, fmt.Errorf("ingestService.RuleSnapshot: %w", err)
	}
	if snap.Module, err = s.rules.ListByDimension(ctx, domain.DimensionModule, true); err != nil {
		return nil, fmt.Errorf("ingestService.RuleSnapshot: %w", err)
	}
	return snap, nil
}

func (s *ingestService) Ingest(ctx context.Context, doc port.ExchangeDocument, snap *rules.Snapshot) (*IngestResult, error) {
	if doc.KSeFNumber == "" {
		return &IngestResult{Outcome: domain.IngestRejected, Reason: "missing KSeF number in exchange envelope"}, nil
	}

	// Cheap pre-check; the unique index still backstops concurrent writers.
	if _, err := s.invoices.GetByKSeFNumber(ctx, doc.KSeFNumber); err == nil {
		return &IngestResult{Outcome: domain.IngestDuplicate}, nil
	} else if !errors.Is(err, domain.ErrInvoiceNotFound) {
		return nil, fmt.Errorf("ingestService.Ingest: dedupe check: %w", err)
	}

	inv, err := parser.Parse(doc.XML)
	if err != nil {
		var vErr *parser.ValidationError
		if errors.As(err, &vErr) {
			return &IngestResult{Outcome: domain.IngestRejected, Reason: vErr.Error()}, nil
		}
		return nil, fmt.Errorf("ingestService.Ingest: %w", err)
	}
	inv.KSeFNumber = doc.KSeFNumber

	if err := s.resolveEntity(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrUnknownEntity) {
			return &IngestResult{Outcome: domain.IngestRejected, Reason: domain.ErrUnknownEntity.Error()}, nil
		}
		return nil, err
	}

	rules.Apply(inv, snap)
	if rules.Resolved(inv) {
		inv.Status = domain.InvoiceStatusAssigned
	}

	now := time.Now().UTC()
	inv.ID = uuid.New()
	inv.Touch(now, nil)

	if err := s.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvoice) {
			// Lost a write race; same outcome as the pre-check duplicate.
			return &IngestResult{Outcome: domain.IngestDuplicate}, nil
		}
		return nil, fmt.Errorf("ingestService.Ingest: %w", err)
	}

	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		InvoiceID:  inv.ID,
		PrevStatus: domain.InvoiceStatusReceived,
		NewStatus:  inv.Status,
		Comment:    "ingested from exchange",
		CreatedAt:  now,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("ingestService.Ingest: audit: %w", err)
	}

	if err := s.linking.EvaluateLinking(ctx, inv); err != nil {
		return nil, fmt.Errorf("ingestService.Ingest: %w", err)
	}

	return &IngestResult{Outcome: domain.IngestCreated, Invoice: inv}, nil
}

// resolveEntity attributes the invoice to a registered business entity and
// derives its direction: the entity as buyer makes it incoming, as seller
// outgoing. A buyer match wins when both parties are registered entities.
func (s *ingestService) resolveEntity(ctx context.Context, inv *domain.InvoiceRecord) error {
	if entity, err := s.entities.GetByNIP(ctx, inv.BuyerNIP); err == nil {
		inv.BusinessEntityID = entity.ID
		inv.Direction = domain.DirectionIncoming
		return nil
	} else if !errors.Is(err, domain.ErrEntityNotFound) {
		return fmt.Errorf("ingestService.resolveEntity: %w", err)
	}

	if entity, err := s.entities.GetByNIP(ctx, inv.SellerNIP); err == nil {
		inv.BusinessEntityID = entity.ID
		inv.Direction = domain.DirectionOutgoing
		return nil
	} else if !errors.Is(err, domain.ErrEntityNotFound) {
		return fmt.Errorf("ingestService.resolveEntity: %w", err)
	}

	return domain.ErrUnknownEntity
}

func (s *ingestService) Reclassify(ctx context.Context, invoiceID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	snap, err := s.RuleSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	prev := inv.Status
	rules.Apply(inv, snap)
	if rules.Resolved(inv) {
		if inv.Status == domain.InvoiceStatusReceived {
			inv.Status = domain.InvoiceStatusAssigned
		}
	} else if inv.Status == domain.InvoiceStatusAssigned {
		inv.Status = domain.InvoiceStatusReceived
	}

	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = userID
	if err := s.invoices.UpdateAssignment(ctx, inv); err != nil {
		return nil, fmt.Errorf("ingestService.Reclassify: %w", err)
	}

	if inv.Status != prev {
		entry := &domain.AuditLogEntry{
			ID:         uuid.New(),
			InvoiceID:  inv.ID,
			PrevStatus: prev,
			NewStatus:  inv.Status,
			UserID:     userID,
			Comment:    "re-classified against current rules",
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("ingestService.Reclassify: audit: %w", err)
		}
	}
	return inv, nil
}
