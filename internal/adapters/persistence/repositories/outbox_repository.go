package repositories

import (
	"context"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// outboxRepository implements OutboxRepository interface
type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new email outbox repository
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Enqueue inserts a queued email
func (r *outboxRepository) Enqueue(ctx context.Context, email *models.EmailOutbox) error {
	return r.db.WithContext(ctx).Create(email).Error
}

// ListQueued lists queued emails oldest first
func (r *outboxRepository) ListQueued(ctx context.Context, limit int) ([]*models.EmailOutbox, error) {
	var emails []*models.EmailOutbox
	err := r.db.WithContext(ctx).
		Where("status = ?", models.EmailQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// MarkSent records a successful delivery
func (r *outboxRepository) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.EmailOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.EmailSent,
			"sent_at": at,
		}).Error
}

// MarkFailed records a delivery failure. Terminal failures leave the queued
// state so the row is no longer picked up.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uint, attempts int, lastError string, terminal bool) error {
	status := models.EmailQueued
	if terminal {
		status = models.EmailFailed
	}
	if len(lastError) > 255 {
		lastError = lastError[:255]
	}
	return r.db.WithContext(ctx).Model(&models.EmailOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastError,
		}).Error
}
