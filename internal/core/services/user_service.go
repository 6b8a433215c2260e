package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// UserService handles member profile operations
type UserService struct {
	userRepo repositories.UserRepository
	docRepo  repositories.DocumentRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, docRepo repositories.DocumentRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		docRepo:  docRepo,
	}
}

// UpdateProfileInput represents profile update input
type UpdateProfileInput struct {
	Name        string `json:"name,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// GetProfile returns a member's profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile applies the provided profile fields. Empty fields are
// left unchanged; email and password are not editable here.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if url := strings.TrimSpace(input.LinkedInURL); url != "" {
		user.LinkedInURL = url
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ListDocuments returns the documents owned by a member
func (s *UserService) ListDocuments(ctx context.Context, userID uint) ([]*models.Document, error) {
	return s.docRepo.ListByUser(ctx, userID)
}
