package handlers

import (
	"context"
	"net/http"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// TaxonomyReader returns the taxonomy forest
type TaxonomyReader interface {
	GetHierarchy(ctx context.Context) ([]*entities.TaxonomyNode, error)
}

// TaxonomyHandler handles GET /taxonomy
type TaxonomyHandler struct {
	taxonomies TaxonomyReader
}

// NewTaxonomyHandler creates a new taxonomy handler
func NewTaxonomyHandler(taxonomies TaxonomyReader) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomies: taxonomies}
}

// GetTaxonomy handles GET /taxonomy
func (h *TaxonomyHandler) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	forest, err := h.taxonomies.GetHierarchy(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if forest == nil {
		forest = []*entities.TaxonomyNode{}
	}

	respondWithJSON(w, http.StatusOK, forest)
}
