package noop

import (
	"context"
	"log"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a no-op ReminderNotifier that logs reminders to stdout.
func NewNoopNotifier() port.ReminderNotifier {
	return &noopNotifier{}
}

func (s *noopNotifier) SendLinkingReminder(_ context.Context, to port.UserRef, invoices []domain.InvoiceRecord) error {
	log.Printf("[NOOP EMAIL] Linking reminder for %s (%s): %d invoice(s) pending", to.Name, to.Email, len(invoices))
	return nil
}
