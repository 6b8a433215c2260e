package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"
)

// Post errors
var (
	ErrEmptyPost   = errors.New("post content is required")
	ErrPostTooLong = errors.New("post content too long")
)

// MaxPostLength caps feed post content
const MaxPostLength = 5000

// DefaultFeedSize is how many posts the feed returns
const DefaultFeedSize = 50

// PostService handles the member feed
type PostService struct {
	postRepo repositories.PostRepository
}

// NewPostService creates a new post service
func NewPostService(postRepo repositories.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// CreatePostInput represents post creation input
type CreatePostInput struct {
	Content string `json:"content" validate:"required"`
}

// Create publishes a post to the member feed
func (s *PostService) Create(ctx context.Context, userID uint, input *CreatePostInput) (*models.PostResponse, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrEmptyPost
	}
	if len(content) > MaxPostLength {
		return nil, ErrPostTooLong
	}

	post := &models.Post{
		Content: content,
		UserID:  userID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post.ToResponse(), nil
}

// ListLatest returns the most recent feed posts, newest first
func (s *PostService) ListLatest(ctx context.Context) ([]*models.PostResponse, error) {
	posts, err := s.postRepo.ListLatest(ctx, DefaultFeedSize)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, post.ToResponse())
	}
	return responses, nil
}
