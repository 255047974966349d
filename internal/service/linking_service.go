package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

// LinkingService manages relations between correction documents and the
// invoices they amend.
type LinkingService interface {
	// EvaluateLinking inspects a freshly ingested invoice: non-corrections are
	// left untouched, corrections are auto-linked when exactly one original
	// matches, and flagged for a manual decision otherwise.
	EvaluateLinking(ctx context.Context, inv *domain.InvoiceRecord) error
	ListPending(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error)
	Confirm(ctx context.Context, invoiceID, targetID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error)
	Dismiss(ctx context.Context, invoiceID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error)
	// ReminderPass sends one reminder round for all pending linking decisions
	// and returns the number of invoices reminded about.
	ReminderPass(ctx context.Context) (int, error)
}

type linkingService struct {
	invoices  port.InvoiceRepository
	relations port.RelationRepository
	audit     port.AuditRepository
	directory port.IdentityDirectory
	notifier  port.ReminderNotifier
	fallback  port.UserRef
}

// NewLinkingService creates a new LinkingService implementation. The fallback
// recipient receives reminders for invoices with no assigned user.
func NewLinkingService(
	invoices port.InvoiceRepository,
	relations port.RelationRepository,
	audit port.AuditRepository,
	directory port.IdentityDirectory,
	notifier port.ReminderNotifier,
	fallback port.UserRef,
) LinkingService {
	return &linkingService{
		invoices:  invoices,
		relations: relations,
		audit:     audit,
		directory: directory,
		notifier:  notifier,
		fallback:  fallback,
	}
}

func (s *linkingService) EvaluateLinking(ctx context.Context, inv *domain.InvoiceRecord) error {
	if !inv.IsCorrection() {
		return nil
	}

	// Without the original's number there is nothing to match against.
	if inv.OriginalNumber == nil || *inv.OriginalNumber == "" {
		return s.flagPending(ctx, inv)
	}

	originals, err := s.invoices.FindByOriginalNumber(ctx, inv.CounterpartyNIP(), *inv.OriginalNumber, inv.ID)
	if err != nil {
		return fmt.Errorf("linkingService.EvaluateLinking: %w", err)
	}

	// Auto-link only on an unambiguous match; zero or several candidates need
	// a human decision.
	if len(originals) != 1 {
		return s.flagPending(ctx, inv)
	}

	return s.link(ctx, inv, originals[0].ID, nil)
}

func (s *linkingService) flagPending(ctx context.Context, inv *domain.InvoiceRecord) error {
	inv.RequiresLinking = true
	inv.LinkingAccepted = false
	inv.UpdatedAt = time.Now().UTC()
	if err := s.invoices.UpdateLinking(ctx, inv); err != nil {
		return fmt.Errorf("linkingService.flagPending: %w", err)
	}
	return nil
}

// link records the relation and settles the correction's linking state.
// A pre-existing relation makes the whole operation an idempotent no-op.
func (s *linkingService) link(ctx context.Context, inv *domain.InvoiceRecord, targetID uuid.UUID, userID *uuid.UUID) error {
	rel := &domain.InvoiceRelation{
		ID:              uuid.New(),
		SourceInvoiceID: inv.ID,
		TargetInvoiceID: targetID,
		RelationType:    domain.RelationCorrectionOf,
		CreatedAt:       time.Now().UTC(),
		CreatedBy:       userID,
	}
	if err := s.relations.Create(ctx, rel); err != nil && !errors.Is(err, domain.ErrRelationExists) {
		return fmt.Errorf("linkingService.link: %w", err)
	}

	prev := inv.Status
	inv.RequiresLinking = false
	inv.LinkingAccepted = true
	inv.Status = domain.InvoiceStatusLinked
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = userID
	if err := s.invoices.UpdateLinking(ctx, inv); err != nil {
		return fmt.Errorf("linkingService.link: %w", err)
	}

	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		InvoiceID:  inv.ID,
		PrevStatus: prev,
		NewStatus:  domain.InvoiceStatusLinked,
		UserID:     userID,
		Comment:    fmt.Sprintf("linked to invoice %s", targetID),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		return fmt.Errorf("linkingService.link: audit: %w", err)
	}
	return nil
}

func (s *linkingService) ListPending(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	return s.invoices.ListRequiringLinking(ctx, offset, limit)
}

func (s *linkingService) Confirm(ctx context.Context, invoiceID, targetID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.RequiresLinking || inv.LinkingAccepted {
		return nil, domain.ErrLinkingNotPending
	}
	if _, err := s.invoices.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	if err := s.link(ctx, inv, targetID, userID); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *linkingService) Dismiss(ctx context.Context, invoiceID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.RequiresLinking || inv.LinkingAccepted {
		return nil, domain.ErrLinkingNotPending
	}

	inv.RequiresLinking = false
	inv.LinkingAccepted = true
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = userID
	if err := s.invoices.UpdateLinking(ctx, inv); err != nil {
		return nil, fmt.Errorf("linkingService.Dismiss: %w", err)
	}

	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		InvoiceID:  inv.ID,
		PrevStatus: inv.Status,
		NewStatus:  inv.Status,
		UserID:     userID,
		Comment:    "linking requirement dismissed",
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("linkingService.Dismiss: audit: %w", err)
	}
	return inv, nil
}

func (s *linkingService) ReminderPass(ctx context.Context) (int, error) {
	const pageSize = 200

	// Collect all pending invoices, grouped by the user responsible for them.
	byUser := make(map[uuid.UUID][]domain.InvoiceRecord)
	var unassigned []domain.InvoiceRecord

	offset := 0
	for {
		pending, total, err := s.invoices.ListRequiringLinking(ctx, offset, pageSize)
		if err != nil {
			return 0, fmt.Errorf("linkingService.ReminderPass: %w", err)
		}
		for _, inv := range pending {
			if inv.AssignedUserID != nil {
				byUser[*inv.AssignedUserID] = append(byUser[*inv.AssignedUserID], inv)
			} else {
				unassigned = append(unassigned, inv)
			}
		}
		offset += len(pending)
		if offset >= total || len(pending) == 0 {
			break
		}
	}

	now := time.Now().UTC()
	reminded := 0

	send := func(to port.UserRef, invoices []domain.InvoiceRecord) {
		if len(invoices) == 0 {
			return
		}
		if err := s.notifier.SendLinkingReminder(ctx, to, invoices); err != nil {
			log.Printf("linkingService: reminder to %s failed: %v", to.Email, err)
			return
		}
		for _, inv := range invoices {
			if err := s.invoices.MarkReminded(ctx, inv.ID, now); err != nil {
				log.Printf("linkingService: marking reminder on %s failed: %v", inv.ID, err)
				continue
			}
			reminded++
		}
	}

	for userID, invoices := range byUser {
		ref, err := s.directory.Lookup(ctx, userID)
		if err != nil {
			// Unknown user in the directory: route to the fallback recipient
			// rather than dropping the reminder.
			unassigned = append(unassigned, invoices...)
			continue
		}
		send(*ref, invoices)
	}
	send(s.fallback, unassigned)

	return reminded, nil
}
