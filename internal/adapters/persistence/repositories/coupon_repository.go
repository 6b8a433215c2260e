package repositories

import (
	"context"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// couponRepository implements CouponRepository interface
type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

// GetByCode gets a coupon by its code. Eligibility (active, expiry, usage
// cap) is judged by the caller so rejections can be reported precisely.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCoupon, error) {
	var coupon models.DiscountCoupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByID gets a coupon by ID
func (r *couponRepository) GetByID(ctx context.Context, id uint) (*models.DiscountCoupon, error) {
	var coupon models.DiscountCoupon
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
