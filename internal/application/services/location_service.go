package services

import (
	"context"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
	"github.com/streetlives/streetlives-api/pkg/geo"
)

// LocationService handles location reads and writes outside of search
type LocationService struct {
	repo          repositories.LocationRepository
	organizations repositories.OrganizationRepository
}

// NewLocationService creates a new location service
func NewLocationService(repo repositories.LocationRepository, organizations repositories.OrganizationRepository) *LocationService {
	return &LocationService{
		repo:          repo,
		organizations: organizations,
	}
}

// GetByID returns a location's full detail. Hidden locations are returned
// too. A location must have exactly one address.
func (s *LocationService) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(loc.PhysicalAddresses) != 1 {
		return nil, apperrors.NewInternalError("location does not have a valid address", nil)
	}
	return loc, nil
}

// Create creates a location and its address
func (s *LocationService) Create(ctx context.Context, in entities.NewLocation) (*entities.Location, error) {
	if err := geo.NewPoint(in.Position.Longitude, in.Position.Latitude).Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := validateNewAddress(in.Address); err != nil {
		return nil, err
	}
	if _, err := s.organizations.GetByID(ctx, in.OrganizationID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Update applies a partial update
func (s *LocationService) Update(ctx context.Context, id string, update entities.LocationUpdate) error {
	if update.Position != nil {
		if err := geo.NewPoint(update.Position.Longitude, update.Position.Latitude).Validate(); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
	}
	if update.OrganizationID != nil {
		if _, err := s.organizations.GetByID(ctx, *update.OrganizationID); err != nil {
			return err
		}
	}
	if info := update.EventRelatedInfo; info != nil && info.Event == "" {
		return apperrors.NewValidationError("eventRelatedInfo.event is required")
	}
	return s.repo.Update(ctx, id, update)
}

func validateNewAddress(a entities.PhysicalAddress) error {
	switch {
	case a.Address1 == "":
		return apperrors.NewValidationError("address.street is required")
	case a.City == "":
		return apperrors.NewValidationError("address.city is required")
	case a.StateProvince == "":
		return apperrors.NewValidationError("address.state is required")
	case a.PostalCode == "":
		return apperrors.NewValidationError("address.postalCode is required")
	case a.Country == "":
		return apperrors.NewValidationError("address.country is required")
	}
	return nil
}
