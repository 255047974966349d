package port

import (
	"context"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
)

// UserRef identifies a reminder recipient resolved through the identity
// provider.
type UserRef struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// IdentityDirectory resolves user ids recorded on invoices into deliverable
// contacts. The identity provider itself is an external collaborator.
type IdentityDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*UserRef, error)
}

// ReminderNotifier delivers linking reminders to responsible users.
type ReminderNotifier interface {
	SendLinkingReminder(ctx context.Context, to UserRef, invoices []domain.InvoiceRecord) error
}
