package handlers

import (
	"context"
	"net/http"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

// LocationSearcher runs location searches
type LocationSearcher interface {
	Search(ctx context.Context, q search.Query) ([]*entities.Location, error)
}

// LocationManager reads and writes single locations
type LocationManager interface {
	GetByID(ctx context.Context, id string) (*entities.Location, error)
	Create(ctx context.Context, in entities.NewLocation) (*entities.Location, error)
	Update(ctx context.Context, id string, update entities.LocationUpdate) error
}

// LocationHandler handles location-related HTTP requests
type LocationHandler struct {
	searcher  LocationSearcher
	locations LocationManager
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(searcher LocationSearcher, locations LocationManager) *LocationHandler {
	return &LocationHandler{
		searcher:  searcher,
		locations: locations,
	}
}

type addressRequest struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	Region     *string `json:"region"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
}

type createLocationRequest struct {
	OrganizationID string         `json:"organizationId"`
	Name           *string        `json:"name"`
	Description    *string        `json:"description"`
	AdditionalInfo *string        `json:"additionalInfo"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	Address        addressRequest `json:"address"`
}

type updateLocationRequest struct {
	Name             *string                         `json:"name"`
	Description      *string                         `json:"description"`
	AdditionalInfo   *string                         `json:"additionalInfo"`
	Latitude         *float64                        `json:"latitude"`
	Longitude        *float64                        `json:"longitude"`
	OrganizationID   *string                         `json:"organizationId"`
	Address          *entities.AddressUpdate         `json:"address"`
	EventRelatedInfo *entities.EventRelatedInfoInput `json:"eventRelatedInfo"`
}

// SearchLocations handles GET /locations
func (h *LocationHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	locations, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if locations == nil {
		locations = []*entities.Location{}
	}

	respondWithJSON(w, http.StatusOK, locations)
}

// GetLocation handles GET /locations/{locationId}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "locationId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	location, err := h.locations.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, location)
}

// CreateLocation handles POST /locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if _, err := requireUUID("organizationId", req.OrganizationID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondWithAppError(w, r, apperrors.NewValidationError("latitude and longitude are required"))
		return
	}

	location, err := h.locations.Create(r.Context(), entities.NewLocation{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		AdditionalInfo: req.AdditionalInfo,
		Position:       entities.Position{Longitude: *req.Longitude, Latitude: *req.Latitude},
		Address: entities.PhysicalAddress{
			Address1:      req.Address.Street,
			City:          req.Address.City,
			Region:        req.Address.Region,
			StateProvince: req.Address.State,
			PostalCode:    req.Address.PostalCode,
			Country:       req.Address.Country,
		},
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, location)
}

// UpdateLocation handles PATCH /locations/{locationId}
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "locationId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req updateLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		respondWithAppError(w, r, apperrors.NewValidationError("latitude and longitude must be updated together"))
		return
	}
	if req.OrganizationID != nil {
		if _, err := requireUUID("organizationId", *req.OrganizationID); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}

	update := entities.LocationUpdate{
		Name:             req.Name,
		Description:      req.Description,
		AdditionalInfo:   req.AdditionalInfo,
		OrganizationID:   req.OrganizationID,
		Address:          req.Address,
		EventRelatedInfo: req.EventRelatedInfo,
	}
	if req.Latitude != nil {
		update.Position = &entities.Position{Longitude: *req.Longitude, Latitude: *req.Latitude}
	}

	if err := h.locations.Update(r.Context(), id, update); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	location, err := h.locations.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, location)
}
