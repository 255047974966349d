package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmbooks/internal/domain"
)

// MockLinkingService is a mock implementation of service.LinkingService.
type MockLinkingService struct {
	mock.Mock
}

func (m *MockLinkingService) EvaluateLinking(ctx context.Context, inv *domain.InvoiceRecord) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockLinkingService) ListPending(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Int(1), args.Error(2)
}

func (m *MockLinkingService) Confirm(ctx context.Context, invoiceID, targetID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, invoiceID, targetID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockLinkingService) Dismiss(ctx context.Context, invoiceID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockLinkingService) ReminderPass(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
