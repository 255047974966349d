package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"farmbooks/internal/domain"
)

// MockRuleRepo is a mock implementation of port.RuleRepository.
type MockRuleRepo struct {
	mock.Mock
}

func (m *MockRuleRepo) Create(ctx context.Context, rule *domain.AssignmentRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssignmentRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentRule), args.Error(1)
}

func (m *MockRuleRepo) ListByDimension(ctx context.Context, dim domain.RuleDimension, activeOnly bool) ([]domain.AssignmentRule, error) {
	args := m.Called(ctx, dim, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentRule), args.Error(1)
}

func (m *MockRuleRepo) Update(ctx context.Context, rule *domain.AssignmentRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepo) SoftDelete(ctx context.Context, id uuid.UUID, by uuid.UUID) error {
	args := m.Called(ctx, id, by)
	return args.Error(0)
}
