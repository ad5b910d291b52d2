package repositories

import (
	"context"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/search"
)

// LocationRepository defines the interface for location data operations
type LocationRepository interface {
	// FindIDs resolves a compiled plan to unique location IDs, ordered by
	// distance then ID when the plan has an origin, by ID otherwise.
	// Hidden locations are never returned.
	FindIDs(ctx context.Context, plan search.QueryPlan) ([]string, error)

	// FetchForSearch loads the given locations with the projection's
	// associations in one consistent snapshot. Returned locations follow the
	// order of ids; unknown IDs are skipped. When occasion is set, the
	// result also carries the data needed for the closed flag.
	FetchForSearch(ctx context.Context, ids []string, projection search.Projection, occasion string) (*SearchFetch, error)

	// GetByID loads a location with its full detail, hidden or not
	GetByID(ctx context.Context, id string) (*entities.Location, error)

	// Exists reports whether a location exists, hidden or not
	Exists(ctx context.Context, id string) (bool, error)

	// OrganizationID returns the owning organization of a location
	OrganizationID(ctx context.Context, id string) (string, error)

	// ListByOrganization lists an organization's locations that are not hidden
	// from search, with addresses
	ListByOrganization(ctx context.Context, organizationID string) ([]*entities.Location, error)

	// Create creates a location and its address
	Create(ctx context.Context, location entities.NewLocation) (*entities.Location, error)

	// Update applies a partial update
	Update(ctx context.Context, id string, update entities.LocationUpdate) error
}

// SearchFetch is the result of LocationRepository.FetchForSearch.
type SearchFetch struct {
	Locations []*entities.Location
	// Occasions is keyed by location ID and only filled when an occasion
	// was requested.
	Occasions map[string]*OccasionStatus
}

// OccasionStatus is the occasion-specific data of one location.
type OccasionStatus struct {
	// EventInfoCount counts EventRelatedInfo rows of the location for the occasion.
	EventInfoCount int
	// ServiceClosures holds, for every service at the location, the closed
	// flag of each of its holiday schedules for the occasion. Services
	// without such schedules map to an empty slice.
	ServiceClosures map[string][]bool
}
