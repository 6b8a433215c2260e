package repositories

import (
	"context"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RegistrationRepository defines registration repository interface
type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uint) (*models.Registration, error)
	GetByExternalReference(ctx context.Context, ref string) (*models.Registration, error)
	Update(ctx context.Context, reg *models.Registration) error
	ListPending(ctx context.Context, offset, limit int) ([]*models.Registration, int64, error)
	ExistsPendingByEmail(ctx context.Context, email string) (bool, error)
	ListStalePayments(ctx context.Context, olderThan time.Time) ([]*models.Registration, error)
}

// PlanRepository defines plan repository interface
type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	GetByID(ctx context.Context, id uint) (*models.Plan, error)
	GetActiveByID(ctx context.Context, id uint) (*models.Plan, error)
	ListActive(ctx context.Context) ([]*models.Plan, error)
	ListAll(ctx context.Context) ([]*models.Plan, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Plan, error)
	Deactivate(ctx context.Context, id uint) error
}

// DocumentRepository defines document repository interface
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uint) (*models.Document, error)
	GetByRegistration(ctx context.Context, registrationID, documentID uint) (*models.Document, error)
	ListByRegistration(ctx context.Context, registrationID uint) ([]*models.Document, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Document, error)
}

// CouponRepository defines discount coupon repository interface
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*models.DiscountCoupon, error)
	GetByID(ctx context.Context, id uint) (*models.DiscountCoupon, error)
}

// ApprovalRepository defines approval audit repository interface
type ApprovalRepository interface {
	Create(ctx context.Context, approval *models.Approval) error
	ListByRegistration(ctx context.Context, registrationID uint) ([]*models.Approval, error)
}

// PostRepository defines post repository interface
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	ListLatest(ctx context.Context, limit int) ([]*models.Post, error)
}

// OutboxRepository defines email outbox repository interface
type OutboxRepository interface {
	Enqueue(ctx context.Context, email *models.EmailOutbox) error
	ListQueued(ctx context.Context, limit int) ([]*models.EmailOutbox, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, attempts int, lastError string, terminal bool) error
}
