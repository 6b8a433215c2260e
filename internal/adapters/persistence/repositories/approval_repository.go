package repositories

import (
	"context"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// approvalRepository implements ApprovalRepository interface
type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// Create appends an approval audit row
func (r *approvalRepository) Create(ctx context.Context, approval *models.Approval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

// ListByRegistration lists the audit trail of a registration
func (r *approvalRepository) ListByRegistration(ctx context.Context, registrationID uint) ([]*models.Approval, error) {
	var approvals []*models.Approval
	err := r.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Order("created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}
