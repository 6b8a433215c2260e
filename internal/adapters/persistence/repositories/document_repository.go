package repositories

import (
	"context"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// documentRepository implements DocumentRepository interface
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create creates a new document metadata row
func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID gets a document by ID
func (r *documentRepository) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByRegistration gets a document only if it belongs to the registration
func (r *documentRepository) GetByRegistration(ctx context.Context, registrationID, documentID uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND registration_id = ?", documentID, registrationID).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByRegistration lists documents attached to a pending registration
func (r *documentRepository) ListByRegistration(ctx context.Context, registrationID uint) ([]*models.Document, error) {
	var docs []*models.Document
	err := r.db.WithContext(ctx).Where("registration_id = ?", registrationID).Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ListByUser lists documents owned by a user
func (r *documentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Document, error) {
	var docs []*models.Document
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
