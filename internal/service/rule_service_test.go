package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/domain"
	"farmbooks/internal/service"
	"farmbooks/mocks"
)

func TestCreateRuleUserDimension(t *testing.T) {
	repo := new(mocks.MockRuleRepo)
	svc := service.NewRuleService(repo)
	userID := uuid.New()
	actor := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.AssignmentRule")).Return(nil)

	rule, err := svc.Create(context.Background(), service.CreateRuleInput{
		Dimension:       domain.DimensionUser,
		Name:            "feed invoices to Anna",
		Priority:        10,
		IncludeKeywords: []string{"pasza"},
		AssignedUserID:  &userID,
	}, &actor)

	require.NoError(t, err)
	assert.Equal(t, domain.DimensionUser, rule.Dimension)
	assert.True(t, rule.IsActive)
	assert.Equal(t, &userID, rule.AssignedUserID)
	assert.Equal(t, &actor, rule.CreatedBy)
	repo.AssertExpectations(t)
}

func TestCreateRuleTargetMustMatchDimension(t *testing.T) {
	repo := new(mocks.MockRuleRepo)
	svc := service.NewRuleService(repo)
	userID := uuid.New()
	farmID := uuid.New()

	cases := []struct {
		name  string
		input service.CreateRuleInput
	}{
		{"user rule without user target", service.CreateRuleInput{
			Dimension: domain.DimensionUser, Name: "r",
		}},
		{"user rule with farm target", service.CreateRuleInput{
			Dimension: domain.DimensionUser, Name: "r",
			AssignedUserID: &userID, TargetFarmIDs: []uuid.UUID{farmID},
		}},
		{"farm rule without farms", service.CreateRuleInput{
			Dimension: domain.DimensionFarm, Name: "r",
		}},
		{"farm rule with module target", service.CreateRuleInput{
			Dimension: domain.DimensionFarm, Name: "r",
			TargetFarmIDs: []uuid.UUID{farmID}, TargetModule: domain.ModuleFeed,
		}},
		{"module rule without module", service.CreateRuleInput{
			Dimension: domain.DimensionModule, Name: "r",
		}},
		{"module rule with user target", service.CreateRuleInput{
			Dimension: domain.DimensionModule, Name: "r",
			TargetModule: domain.ModuleFeed, AssignedUserID: &userID,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidRuleTarget)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRuleRejectsUnknownDimension(t *testing.T) {
	svc := service.NewRuleService(new(mocks.MockRuleRepo))

	_, err := svc.Create(context.Background(), service.CreateRuleInput{
		Dimension: "warehouse",
		Name:      "r",
	}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidDimension)
}

func TestUpdateRulePartialPatch(t *testing.T) {
	repo := new(mocks.MockRuleRepo)
	svc := service.NewRuleService(repo)
	userID := uuid.New()
	stored := &domain.AssignmentRule{
		ID:              uuid.New(),
		Dimension:       domain.DimensionUser,
		Name:            "old name",
		Priority:        5,
		IsActive:        true,
		IncludeKeywords: domain.StringList{"pasza"},
		AssignedUserID:  &userID,
	}

	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	repo.On("Update", mock.Anything, stored).Return(nil)

	newName := "new name"
	inactive := false
	rule, err := svc.Update(context.Background(), stored.ID, service.UpdateRuleInput{
		Name:     &newName,
		IsActive: &inactive,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "new name", rule.Name)
	assert.False(t, rule.IsActive)
	// Untouched fields survive the patch.
	assert.Equal(t, 5, rule.Priority)
	assert.Equal(t, domain.StringList{"pasza"}, rule.IncludeKeywords)
}

func TestUpdateRuleRevalidatesTarget(t *testing.T) {
	repo := new(mocks.MockRuleRepo)
	svc := service.NewRuleService(repo)
	userID := uuid.New()
	stored := &domain.AssignmentRule{
		ID:             uuid.New(),
		Dimension:      domain.DimensionUser,
		AssignedUserID: &userID,
	}

	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	_, err := svc.Update(context.Background(), stored.ID, service.UpdateRuleInput{
		TargetFarmIDs: []uuid.UUID{uuid.New()},
	}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidRuleTarget)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListByDimensionValidatesDimension(t *testing.T) {
	repo := new(mocks.MockRuleRepo)
	svc := service.NewRuleService(repo)

	_, err := svc.ListByDimension(context.Background(), "warehouse")

	assert.ErrorIs(t, err, domain.ErrInvalidDimension)
	repo.AssertNotCalled(t, "ListByDimension", mock.Anything, mock.Anything, mock.Anything)
}
