package repositories

import (
	"context"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// TaxonomyRepository defines the interface for taxonomy reads
type TaxonomyRepository interface {
	// ListAll returns every taxonomy row
	ListAll(ctx context.Context) ([]*entities.Taxonomy, error)

	// GetByID retrieves a taxonomy by ID
	GetByID(ctx context.Context, id string) (*entities.Taxonomy, error)
}
