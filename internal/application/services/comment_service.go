package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

// CommentService handles public comments on locations
type CommentService struct {
	repo      repositories.CommentRepository
	locations repositories.LocationRepository
}

// NewCommentService creates a new comment service
func NewCommentService(repo repositories.CommentRepository, locations repositories.LocationRepository) *CommentService {
	return &CommentService{
		repo:      repo,
		locations: locations,
	}
}

// ListForLocation returns the visible comments of a location
func (s *CommentService) ListForLocation(ctx context.Context, locationID string) ([]*entities.Comment, error) {
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}
	return s.repo.ListForLocation(ctx, locationID)
}

// Create posts a new top-level comment
func (s *CommentService) Create(ctx context.Context, locationID, content string, postedBy, contactInfo *string) (*entities.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content is required")
	}
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	comment := newComment(locationID, content, postedBy)
	comment.ContactInfo = contactInfo
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Reply posts a reply to an existing comment, on the same location
func (s *CommentService) Reply(ctx context.Context, commentID, content string, postedBy *string) (*entities.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content is required")
	}
	parent, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	reply := newComment(parent.LocationID, content, postedBy)
	reply.ReplyToID = &parent.ID
	if err := s.repo.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *CommentService) requireLocation(ctx context.Context, locationID string) error {
	exists, err := s.locations.Exists(ctx, locationID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFoundError("location not found")
	}
	return nil
}

func newComment(locationID, content string, postedBy *string) *entities.Comment {
	now := time.Now().UTC()
	return &entities.Comment{
		ID:         uuid.NewString(),
		LocationID: locationID,
		Content:    content,
		PostedBy:   postedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
