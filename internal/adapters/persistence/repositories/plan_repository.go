package repositories

import (
	"context"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// planRepository implements PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan
func (r *planRepository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// GetByID gets a plan by ID regardless of active flag
func (r *planRepository) GetByID(ctx context.Context, id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActiveByID gets an active plan by ID
func (r *planRepository) GetActiveByID(ctx context.Context, id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive lists active plans cheapest first
func (r *planRepository) ListActive(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("price ASC").Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// ListAll lists all plans including inactive ones
func (r *planRepository) ListAll(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	err := r.db.WithContext(ctx).Order("price ASC").Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// Update applies a partial update and returns the refreshed plan
func (r *planRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Plan, error) {
	if err := r.db.WithContext(ctx).Model(&models.Plan{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Deactivate soft deletes a plan by marking it inactive
func (r *planRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Plan{}).Where("id = ?", id).
		Update("active", false).Error
}
