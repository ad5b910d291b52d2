package repositories

import (
	"context"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// ServiceRepository defines the interface for service data operations
type ServiceRepository interface {
	// Create creates a service for organizationID, links it to the location
	// and tags it with the taxonomy
	Create(ctx context.Context, organizationID string, service entities.NewService) (*entities.Service, error)

	// GetByID retrieves a service by ID
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// Update applies a partial update and its association replacements in
	// one transaction
	Update(ctx context.Context, id string, update entities.ServiceUpdate) error

	// EligibilityParameters lists the known eligibility parameters
	EligibilityParameters(ctx context.Context) ([]*entities.EligibilityParameter, error)

	// Languages lists the languages services and locations can reference
	Languages(ctx context.Context) ([]*entities.Language, error)
}
