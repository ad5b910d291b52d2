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

// OrganizationService handles business logic for organizations
type OrganizationService struct {
	repo      repositories.OrganizationRepository
	locations repositories.LocationRepository
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(repo repositories.OrganizationRepository, locations repositories.LocationRepository) *OrganizationService {
	return &OrganizationService{
		repo:      repo,
		locations: locations,
	}
}

// List returns organizations whose name contains searchString
func (s *OrganizationService) List(ctx context.Context, searchString string) ([]*entities.Organization, error) {
	return s.repo.List(ctx, strings.TrimSpace(searchString))
}

// GetByID retrieves an organization by ID
func (s *OrganizationService) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	return s.repo.GetByID(ctx, id)
}

// GetLocations lists the locations of an organization that are not hidden from search
func (s *OrganizationService) GetLocations(ctx context.Context, id string) ([]*entities.Location, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.locations.ListByOrganization(ctx, id)
}

// Create creates a new organization
func (s *OrganizationService) Create(ctx context.Context, name string, description, url *string) (*entities.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}

	now := time.Now().UTC()
	org := &entities.Organization{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		URL:         url,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Update applies a partial update
func (s *OrganizationService) Update(ctx context.Context, id string, update entities.OrganizationUpdate) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return apperrors.NewValidationError("name cannot be empty")
	}
	if update.IsEmpty() {
		_, err := s.repo.GetByID(ctx, id)
		return err
	}
	return s.repo.Update(ctx, id, update)
}
