package repositories

import (
	"context"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// ListForLocation returns visible top-level comments with their visible
	// replies, newest first
	ListForLocation(ctx context.Context, locationID string) ([]*entities.Comment, error)

	// GetByID retrieves a comment by ID
	GetByID(ctx context.Context, id string) (*entities.Comment, error)

	// Create creates a new comment
	Create(ctx context.Context, comment *entities.Comment) error
}
