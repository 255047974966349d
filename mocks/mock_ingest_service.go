package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
	"farmbooks/internal/rules"
	"farmbooks/internal/service"
)

// MockIngestService is a mock implementation of service.IngestService.
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, doc port.ExchangeDocument, snap *rules.Snapshot) (*service.IngestResult, error) {
	args := m.Called(ctx, doc, snap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockIngestService) RuleSnapshot(ctx context.Context) (*rules.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rules.Snapshot), args.Error(1)
}

func (m *MockIngestService) Reclassify(ctx context.Context, invoiceID uuid.UUID, userID *uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}
