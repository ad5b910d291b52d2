package handlers

import (
	"context"
	"net/http"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// OrganizationManager reads and writes organizations
type OrganizationManager interface {
	List(ctx context.Context, searchString string) ([]*entities.Organization, error)
	GetByID(ctx context.Context, id string) (*entities.Organization, error)
	GetLocations(ctx context.Context, id string) ([]*entities.Location, error)
	Create(ctx context.Context, name string, description, url *string) (*entities.Organization, error)
	Update(ctx context.Context, id string, update entities.OrganizationUpdate) error
}

// OrganizationHandler handles organization-related HTTP requests
type OrganizationHandler struct {
	organizations OrganizationManager
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(organizations OrganizationManager) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations}
}

type createOrganizationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// ListOrganizations handles GET /organizations
func (h *OrganizationHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	organizations, err := h.organizations.List(r.Context(), r.URL.Query().Get("searchString"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, organizations)
}

// GetOrganization handles GET /organizations/{organizationId}
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "organizationId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	organization, err := h.organizations.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, organization)
}

// GetOrganizationLocations handles GET /organizations/{organizationId}/locations
func (h *OrganizationHandler) GetOrganizationLocations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "organizationId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	locations, err := h.organizations.GetLocations(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if locations == nil {
		locations = []*entities.Location{}
	}

	respondWithJSON(w, http.StatusOK, locations)
}

// CreateOrganization handles POST /organizations
func (h *OrganizationHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	organization, err := h.organizations.Create(r.Context(), req.Name, req.Description, req.URL)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, organization)
}

// UpdateOrganization handles PATCH /organizations/{organizationId}
func (h *OrganizationHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "organizationId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var update entities.OrganizationUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := h.organizations.Update(r.Context(), id, update); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	organization, err := h.organizations.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, organization)
}
