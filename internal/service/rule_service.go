package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

// CreateRuleInput is the DTO for creating an assignment rule.
type CreateRuleInput struct {
	Dimension       domain.RuleDimension `json:"dimension" binding:"required"`
	Name            string               `json:"name" binding:"required"`
	Priority        int                  `json:"priority"`
	IsActive        *bool                `json:"is_active"`
	IncludeKeywords []string             `json:"include_keywords"`
	ExcludeKeywords []string             `json:"exclude_keywords"`

	BusinessEntityID *uuid.UUID               `json:"business_entity_id"`
	Direction        *domain.InvoiceDirection `json:"direction"`

	AssignedUserID *uuid.UUID              `json:"assigned_user_id"`
	TargetFarmIDs  []uuid.UUID             `json:"target_farm_ids"`
	TargetModule   domain.ProcessingModule `json:"target_module"`
}

// UpdateRuleInput is the DTO for updating an assignment rule. The dimension
// is immutable; nil fields are left unchanged.
type UpdateRuleInput struct {
	Name            *string  `json:"name"`
	Priority        *int     `json:"priority"`
	IsActive        *bool    `json:"is_active"`
	IncludeKeywords []string `json:"include_keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`

	BusinessEntityID *uuid.UUID               `json:"business_entity_id"`
	Direction        *domain.InvoiceDirection `json:"direction"`

	AssignedUserID *uuid.UUID               `json:"assigned_user_id"`
	TargetFarmIDs  []uuid.UUID              `json:"target_farm_ids"`
	TargetModule   *domain.ProcessingModule `json:"target_module"`
}

// RuleService defines the assignment rule management contract.
type RuleService interface {
	Create(ctx context.Context, input CreateRuleInput, userID *uuid.UUID) (*domain.AssignmentRule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AssignmentRule, error)
	ListByDimension(ctx context.Context, dim domain.RuleDimension) ([]domain.AssignmentRule, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateRuleInput, userID *uuid.UUID) (*domain.AssignmentRule, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type ruleService struct {
	repo port.RuleRepository
}

// NewRuleService creates a new RuleService implementation.
func NewRuleService(repo port.RuleRepository) RuleService {
	return &ruleService{repo: repo}
}

func (s *ruleService) Create(ctx context.Context, input CreateRuleInput, userID *uuid.UUID) (*domain.AssignmentRule, error) {
	if !domain.ValidDimensions[input.Dimension] {
		return nil, domain.ErrInvalidDimension
	}

	rule := &domain.AssignmentRule{
		ID:               uuid.New(),
		Dimension:        input.Dimension,
		Name:             input.Name,
		Priority:         input.Priority,
		IsActive:         true,
		IncludeKeywords:  domain.StringList(input.IncludeKeywords),
		ExcludeKeywords:  domain.StringList(input.ExcludeKeywords),
		BusinessEntityID: input.BusinessEntityID,
		Direction:        input.Direction,
		AssignedUserID:   input.AssignedUserID,
		TargetFarmIDs:    domain.UUIDList(input.TargetFarmIDs),
		TargetModule:     input.TargetModule,
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if err := validateTarget(rule); err != nil {
		return nil, err
	}

	rule.Touch(time.Now().UTC(), userID)
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// validateTarget checks that exactly the dimension's own target is populated.
func validateTarget(rule *domain.AssignmentRule) error {
	switch rule.Dimension {
	case domain.DimensionUser:
		if rule.AssignedUserID == nil || len(rule.TargetFarmIDs) > 0 || rule.TargetModule != "" {
			return domain.ErrInvalidRuleTarget
		}
	case domain.DimensionFarm:
		if len(rule.TargetFarmIDs) == 0 || rule.AssignedUserID != nil || rule.TargetModule != "" {
			return domain.ErrInvalidRuleTarget
		}
	case domain.DimensionModule:
		if rule.TargetModule == "" || rule.AssignedUserID != nil || len(rule.TargetFarmIDs) > 0 {
			return domain.ErrInvalidRuleTarget
		}
	default:
		return domain.ErrInvalidDimension
	}
	return nil
}

func (s *ruleService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AssignmentRule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ruleService) ListByDimension(ctx context.Context, dim domain.RuleDimension) ([]domain.AssignmentRule, error) {
	if !domain.ValidDimensions[dim] {
		return nil, domain.ErrInvalidDimension
	}
	return s.repo.ListByDimension(ctx, dim, false)
}

func (s *ruleService) Update(ctx context.Context, id uuid.UUID, input UpdateRuleInput, userID *uuid.UUID) (*domain.AssignmentRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		rule.Name = *input.Name
	}
	if input.Priority != nil {
		rule.Priority = *input.Priority
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if input.IncludeKeywords != nil {
		rule.IncludeKeywords = domain.StringList(input.IncludeKeywords)
	}
	if input.ExcludeKeywords != nil {
		rule.ExcludeKeywords = domain.StringList(input.ExcludeKeywords)
	}
	if input.BusinessEntityID != nil {
		rule.BusinessEntityID = input.BusinessEntityID
	}
	if input.Direction != nil {
		rule.Direction = input.Direction
	}
	if input.AssignedUserID != nil {
		rule.AssignedUserID = input.AssignedUserID
	}
	if input.TargetFarmIDs != nil {
		rule.TargetFarmIDs = domain.UUIDList(input.TargetFarmIDs)
	}
	if input.TargetModule != nil {
		rule.TargetModule = *input.TargetModule
	}
	if err := validateTarget(rule); err != nil {
		return nil, err
	}

	rule.UpdatedAt = time.Now().UTC()
	rule.UpdatedBy = userID
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *ruleService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id, userID)
}
