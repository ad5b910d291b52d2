package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
	"github.com/streetlives/streetlives-api/pkg/utils"
)

// ServiceService handles creation and updates of services
type ServiceService struct {
	repo       repositories.ServiceRepository
	locations  repositories.LocationRepository
	taxonomies repositories.TaxonomyRepository
}

// NewServiceService creates a new service service
func NewServiceService(
	repo repositories.ServiceRepository,
	locations repositories.LocationRepository,
	taxonomies repositories.TaxonomyRepository,
) *ServiceService {
	return &ServiceService{
		repo:       repo,
		locations:  locations,
		taxonomies: taxonomies,
	}
}

// Create creates a service at a location, owned by the location's organization
func (s *ServiceService) Create(ctx context.Context, in entities.NewService) (*entities.Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if in.TaxonomyID == "" {
		return nil, apperrors.NewValidationError("taxonomyId is required")
	}

	organizationID, err := s.locations.OrganizationID(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.taxonomies.GetByID(ctx, in.TaxonomyID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, organizationID, in)
}

// GetByID retrieves a service by ID
func (s *ServiceService) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates and normalizes update, then applies it in one transaction
func (s *ServiceService) Update(ctx context.Context, id string, update entities.ServiceUpdate) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return apperrors.NewValidationError("name cannot be empty")
	}
	if update.TaxonomyID != nil {
		if _, err := s.taxonomies.GetByID(ctx, *update.TaxonomyID); err != nil {
			return err
		}
	}
	if err := normalizeHours(update.Hours); err != nil {
		return err
	}
	if err := normalizeIrregularHours(update.IrregularHours); err != nil {
		return err
	}
	if err := validateEligibility(update.Eligibility); err != nil {
		return err
	}
	if err := validateJSON("agesServed", update.AgesServed); err != nil {
		return err
	}
	if err := validateJSON("whoDoesItServe", update.WhoDoesItServe); err != nil {
		return err
	}
	for _, code := range update.AreaServed {
		if strings.TrimSpace(code) == "" {
			return apperrors.NewValidationError("areaServed cannot contain empty postal codes")
		}
	}
	if info := update.EventRelatedInfo; info != nil && info.Event == "" {
		return apperrors.NewValidationError("eventRelatedInfo.event is required")
	}
	if docs := update.Documents; docs != nil {
		for _, proof := range docs.Proofs {
			if strings.TrimSpace(proof) == "" {
				return apperrors.NewValidationError("documents.proofs cannot contain empty names")
			}
		}
	}
	return s.repo.Update(ctx, id, update)
}

// EligibilityParameters lists the known eligibility parameters
func (s *ServiceService) EligibilityParameters(ctx context.Context) ([]*entities.EligibilityParameter, error) {
	return s.repo.EligibilityParameters(ctx)
}

// Languages lists the languages a service update may reference
func (s *ServiceService) Languages(ctx context.Context) ([]*entities.Language, error) {
	return s.repo.Languages(ctx)
}

func normalizeHours(hours []entities.HoursInput) error {
	for i := range hours {
		h := &hours[i]
		if _, err := utils.ParseWeekday(h.Weekday); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		opens, err := utils.NormalizeClock(h.OpensAt)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		closes, err := utils.NormalizeClock(h.ClosesAt)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if closes <= opens {
			return apperrors.NewValidationErrorf("hours on %s close before they open", h.Weekday)
		}
		h.OpensAt, h.ClosesAt = opens, closes
	}
	return nil
}

func normalizeIrregularHours(entries []entities.IrregularHoursInput) error {
	for i := range entries {
		e := &entries[i]
		hasOccasion := e.Occasion != nil && *e.Occasion != ""
		hasDates := e.StartDate != nil || e.EndDate != nil
		if hasOccasion == hasDates {
			return apperrors.NewValidationError("irregularHours entries need either an occasion or a date range")
		}
		if e.Weekday != nil {
			if _, err := utils.ParseWeekday(*e.Weekday); err != nil {
				return apperrors.NewValidationError(err.Error())
			}
		}
		for _, clock := range []**string{&e.OpensAt, &e.ClosesAt} {
			if *clock == nil {
				continue
			}
			normalized, err := utils.NormalizeClock(**clock)
			if err != nil {
				return apperrors.NewValidationError(err.Error())
			}
			*clock = &normalized
		}
		if !e.Closed && (e.OpensAt == nil || e.ClosesAt == nil) {
			return apperrors.NewValidationError("irregularHours entries that are not closed need opensAt and closesAt")
		}
	}
	return nil
}

func validateEligibility(eligibility map[string]json.RawMessage) error {
	for name, values := range eligibility {
		if !search.IsEligibilityParameter(name) {
			return apperrors.NewValidationErrorf("unknown eligibility parameter %q", name)
		}
		if values == nil || string(values) == "null" {
			continue
		}
		var list []interface{}
		if err := json.Unmarshal(values, &list); err != nil {
			return apperrors.NewValidationErrorf("eligibility %q must be a list of values", name)
		}
	}
	return nil
}

func validateJSON(field string, raw json.RawMessage) error {
	if raw != nil && !json.Valid(raw) {
		return apperrors.NewValidationErrorf("%s must be valid JSON", field)
	}
	return nil
}
