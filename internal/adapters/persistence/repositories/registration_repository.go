package repositories

import (
	"context"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// registrationRepository implements RegistrationRepository interface
type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

// Create creates a new registration
func (r *registrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

// GetByID gets a registration by ID with its plan preloaded
func (r *registrationRepository) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.WithContext(ctx).Preload("Plan").Where("id = ?", id).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByExternalReference gets a registration by its payment correlation key
func (r *registrationRepository) GetByExternalReference(ctx context.Context, ref string) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.WithContext(ctx).Preload("Plan").Where("external_reference = ?", ref).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Update updates a registration
func (r *registrationRepository) Update(ctx context.Context, reg *models.Registration) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

// ListPending lists pending registrations newest first, with plan info
func (r *registrationRepository) ListPending(ctx context.Context, offset, limit int) ([]*models.Registration, int64, error) {
	var regs []*models.Registration
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("status = ?", models.RegistrationPending)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Plan").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&regs).Error
	if err != nil {
		return nil, 0, err
	}

	return regs, total, nil
}

// ExistsPendingByEmail checks whether a pending registration holds this email
func (r *registrationRepository) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("email = ? AND status = ?", email, models.RegistrationPending).
		Count(&count).Error
	return count > 0, err
}

// ListStalePayments lists pending registrations whose checkout has been
// awaiting confirmation since before olderThan. Fed to the reconciliation
// sweep.
func (r *registrationRepository) ListStalePayments(ctx context.Context, olderThan time.Time) ([]*models.Registration, error) {
	var regs []*models.Registration
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND status = ? AND external_reference IS NOT NULL AND updated_at < ?",
			models.PaymentPending, models.RegistrationPending, olderThan).
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}
