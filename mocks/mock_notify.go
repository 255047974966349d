package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

// MockReminderNotifier is a mock implementation of port.ReminderNotifier.
type MockReminderNotifier struct {
	mock.Mock
}

func (m *MockReminderNotifier) SendLinkingReminder(ctx context.Context, to port.UserRef, invoices []domain.InvoiceRecord) error {
	args := m.Called(ctx, to, invoices)
	return args.Error(0)
}

// MockIdentityDirectory is a mock implementation of port.IdentityDirectory.
type MockIdentityDirectory struct {
	mock.Mock
}

func (m *MockIdentityDirectory) Lookup(ctx context.Context, id uuid.UUID) (*port.UserRef, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UserRef), args.Error(1)
}
