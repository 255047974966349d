package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmbooks/internal/domain"
)

// MockRelationRepo is a mock implementation of port.RelationRepository.
type MockRelationRepo struct {
	mock.Mock
}

func (m *MockRelationRepo) Create(ctx context.Context, rel *domain.InvoiceRelation) error {
	args := m.Called(ctx, rel)
	return args.Error(0)
}

func (m *MockRelationRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceRelation, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceRelation), args.Error(1)
}

func (m *MockRelationRepo) ExistsFromSource(ctx context.Context, sourceInvoiceID uuid.UUID, relType domain.RelationType) (bool, error) {
	args := m.Called(ctx, sourceInvoiceID, relType)
	return args.Bool(0), args.Error(1)
}
