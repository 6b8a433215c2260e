package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Plan errors
var (
	ErrPlanValidation = errors.New("plan validation failed")
)

// PlanService handles membership plan management
type PlanService struct {
	planRepo repositories.PlanRepository
}

// NewPlanService creates a new plan service
func NewPlanService(planRepo repositories.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// PlanInput represents plan create/update input
type PlanInput struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	IsPublic    *bool    `json:"is_public"`
	Description string   `json:"description"`
}

// ListActive returns the plans offered on the registration page
func (s *PlanService) ListActive(ctx context.Context) ([]*models.Plan, error) {
	return s.planRepo.ListActive(ctx)
}

// ListAll returns every plan, including deactivated ones
func (s *PlanService) ListAll(ctx context.Context) ([]*models.Plan, error) {
	return s.planRepo.ListAll(ctx)
}

// Get returns a single plan
func (s *PlanService) Get(ctx context.Context, id uint) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Create adds a new membership plan
func (s *PlanService) Create(ctx context.Context, input *PlanInput) (*models.Plan, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price == nil || *input.Price < 0 {
		return nil, ErrPlanValidation
	}

	plan := &models.Plan{
		Name:        name,
		Price:       *input.Price,
		Description: input.Description,
		Active:      true,
	}
	if input.IsPublic != nil {
		plan.IsPublic = *input.IsPublic
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update edits a plan. Only the provided fields change; price edits do
// not touch registrations whose final price was already frozen.
func (s *PlanService) Update(ctx context.Context, id uint, input *PlanInput) (*models.Plan, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrPlanValidation
		}
		updates["price"] = *input.Price
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}

	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	plan, err := s.planRepo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Deactivate hides a plan from the registration page without deleting it
func (s *PlanService) Deactivate(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.planRepo.Deactivate(ctx, id)
}
