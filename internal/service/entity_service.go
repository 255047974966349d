package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

// CreateEntityInput is the DTO for registering a business entity.
type CreateEntityInput struct {
	Name string `json:"name" binding:"required"`
	NIP  string `json:"nip" binding:"required"`
}

// UpdateEntityInput is the DTO for updating a business entity.
type UpdateEntityInput struct {
	Name     *string `json:"name"`
	NIP      *string `json:"nip"`
	IsActive *bool   `json:"is_active"`
}

// EntityService defines the business entity management contract.
type EntityService interface {
	Create(ctx context.Context, input CreateEntityInput, userID *uuid.UUID) (*domain.BusinessEntity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessEntity, error)
	List(ctx context.Context, offset, limit int) ([]domain.BusinessEntity, int, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEntityInput, userID *uuid.UUID) (*domain.BusinessEntity, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type entityService struct {
	repo port.EntityRepository
}

// NewEntityService creates a new EntityService implementation.
func NewEntityService(repo port.EntityRepository) EntityService {
	return &entityService{repo: repo}
}

// normalizeNIP strips the separators commonly typed into tax ids so lookups
// against exchange documents compare digit strings.
func normalizeNIP(nip string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(nip)
}

func (s *entityService) Create(ctx context.Context, input CreateEntityInput, userID *uuid.UUID) (*domain.BusinessEntity, error) {
	entity := &domain.BusinessEntity{
		ID:       uuid.New(),
		Name:     input.Name,
		NIP:      normalizeNIP(input.NIP),
		IsActive: true,
	}
	entity.Touch(time.Now().UTC(), userID)

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *entityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessEntity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *entityService) List(ctx context.Context, offset, limit int) ([]domain.BusinessEntity, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *entityService) Update(ctx context.Context, id uuid.UUID, input UpdateEntityInput, userID *uuid.UUID) (*domain.BusinessEntity, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		entity.Name = *input.Name
	}
	if input.NIP != nil {
		entity.NIP = normalizeNIP(*input.NIP)
	}
	if input.IsActive != nil {
		entity.IsActive = *input.IsActive
	}

	entity.UpdatedAt = time.Now().UTC()
	entity.UpdatedBy = userID
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *entityService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id, userID)
}
