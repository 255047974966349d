package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmbooks/internal/domain"
)

// MockEntityRepo is a mock implementation of port.EntityRepository.
type MockEntityRepo struct {
	mock.Mock
}

func (m *MockEntityRepo) Create(ctx context.Context, entity *domain.BusinessEntity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BusinessEntity), args.Error(1)
}

func (m *MockEntityRepo) GetByNIP(ctx context.Context, nip string) (*domain.BusinessEntity, error) {
	args := m.Called(ctx, nip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BusinessEntity), args.Error(1)
}

func (m *MockEntityRepo) ListActive(ctx context.Context) ([]domain.BusinessEntity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BusinessEntity), args.Error(1)
}

func (m *MockEntityRepo) List(ctx context.Context, offset, limit int) ([]domain.BusinessEntity, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.BusinessEntity), args.Int(1), args.Error(2)
}

func (m *MockEntityRepo) Update(ctx context.Context, entity *domain.BusinessEntity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	args := m.Called(ctx, id, by)
	return args.Error(0)
}
