package repositories

import (
	"context"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// OrganizationRepository defines the interface for organization data operations
type OrganizationRepository interface {
	// List returns organizations whose name contains searchString, by name
	List(ctx context.Context, searchString string) ([]*entities.Organization, error)

	// GetByID retrieves an organization by ID
	GetByID(ctx context.Context, id string) (*entities.Organization, error)

	// Create creates a new organization
	Create(ctx context.Context, organization *entities.Organization) error

	// Update applies a partial update
	Update(ctx context.Context, id string, update entities.OrganizationUpdate) error
}
