package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// ServiceManager reads and writes services
type ServiceManager interface {
	Create(ctx context.Context, in entities.NewService) (*entities.Service, error)
	GetByID(ctx context.Context, id string) (*entities.Service, error)
	Update(ctx context.Context, id string, update entities.ServiceUpdate) error
	EligibilityParameters(ctx context.Context) ([]*entities.EligibilityParameter, error)
	Languages(ctx context.Context) ([]*entities.Language, error)
}

// ServiceHandler handles service-related HTTP requests
type ServiceHandler struct {
	services ServiceManager
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(services ServiceManager) *ServiceHandler {
	return &ServiceHandler{services: services}
}

type createServiceRequest struct {
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	URL            *string `json:"url"`
	AdditionalInfo *string `json:"additionalInfo"`
	TaxonomyID     string  `json:"taxonomyId"`
	LocationID     string  `json:"locationId"`
}

// updateServiceRequest mirrors entities.ServiceUpdate. An absent or null
// list leaves the association alone; an empty list clears it.
type updateServiceRequest struct {
	Name             *string                         `json:"name"`
	Description      *string                         `json:"description"`
	URL              *string                         `json:"url"`
	Fees             *string                         `json:"fees"`
	AdditionalInfo   *string                         `json:"additionalInfo"`
	TaxonomyID       *string                         `json:"taxonomyId"`
	AgesServed       json.RawMessage                 `json:"agesServed"`
	WhoDoesItServe   json.RawMessage                 `json:"whoDoesItServe"`
	Hours            []entities.HoursInput           `json:"hours"`
	IrregularHours   []entities.IrregularHoursInput  `json:"irregularHours"`
	Documents        *entities.DocumentsInput        `json:"documents"`
	EventRelatedInfo *entities.EventRelatedInfoInput `json:"eventRelatedInfo"`
	Eligibility      map[string]json.RawMessage      `json:"eligibility"`
	AreaServed       []string                        `json:"areaServed"`
	LanguageIDs      []string                        `json:"languageIds"`
}

// CreateService handles POST /services
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if _, err := requireUUID("locationId", req.LocationID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if _, err := requireUUID("taxonomyId", req.TaxonomyID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	service, err := h.services.Create(r.Context(), entities.NewService{
		Name:           req.Name,
		Description:    req.Description,
		URL:            req.URL,
		AdditionalInfo: req.AdditionalInfo,
		TaxonomyID:     req.TaxonomyID,
		LocationID:     req.LocationID,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, service)
}

// GetService handles GET /services/{serviceId}
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "serviceId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	service, err := h.services.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, service)
}

// UpdateService handles PATCH /services/{serviceId}
func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "serviceId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req updateServiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.TaxonomyID != nil {
		if _, err := requireUUID("taxonomyId", *req.TaxonomyID); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}
	for _, languageID := range req.LanguageIDs {
		if _, err := requireUUID("languageIds", languageID); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}

	err = h.services.Update(r.Context(), id, entities.ServiceUpdate{
		Name:             req.Name,
		Description:      req.Description,
		URL:              req.URL,
		Fees:             req.Fees,
		AdditionalInfo:   req.AdditionalInfo,
		TaxonomyID:       req.TaxonomyID,
		AgesServed:       req.AgesServed,
		WhoDoesItServe:   req.WhoDoesItServe,
		Hours:            req.Hours,
		IrregularHours:   req.IrregularHours,
		Documents:        req.Documents,
		EventRelatedInfo: req.EventRelatedInfo,
		Eligibility:      req.Eligibility,
		AreaServed:       req.AreaServed,
		LanguageIDs:      req.LanguageIDs,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	service, err := h.services.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, service)
}

// ListEligibilityParameters handles GET /eligibility-parameters
func (h *ServiceHandler) ListEligibilityParameters(w http.ResponseWriter, r *http.Request) {
	parameters, err := h.services.EligibilityParameters(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, parameters)
}

// ListLanguages handles GET /languages
func (h *ServiceHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.services.Languages(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, languages)
}
