package routes

import (
	"net/http"

	"github.com/streetlives/streetlives-api/internal/api/handlers"
	"github.com/streetlives/streetlives-api/internal/api/middleware"
	"github.com/streetlives/streetlives-api/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	locationHandler     *handlers.LocationHandler
	organizationHandler *handlers.OrganizationHandler
	serviceHandler      *handlers.ServiceHandler
	taxonomyHandler     *handlers.TaxonomyHandler
	commentHandler      *handlers.CommentHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	locationHandler *handlers.LocationHandler,
	organizationHandler *handlers.OrganizationHandler,
	serviceHandler *handlers.ServiceHandler,
	taxonomyHandler *handlers.TaxonomyHandler,
	commentHandler *handlers.CommentHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		locationHandler:     locationHandler,
		organizationHandler: organizationHandler,
		serviceHandler:      serviceHandler,
		taxonomyHandler:     taxonomyHandler,
		commentHandler:      commentHandler,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
	}
}

// SetupRoutes configures all routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Location endpoints
	r.mux.HandleFunc("GET /locations", r.locationHandler.SearchLocations)
	r.mux.HandleFunc("POST /locations", r.locationHandler.CreateLocation)
	r.mux.HandleFunc("GET /locations/{locationId}", r.locationHandler.GetLocation)
	r.mux.HandleFunc("PATCH /locations/{locationId}", r.locationHandler.UpdateLocation)

	// Organization endpoints
	r.mux.HandleFunc("GET /organizations", r.organizationHandler.ListOrganizations)
	r.mux.HandleFunc("POST /organizations", r.organizationHandler.CreateOrganization)
	r.mux.HandleFunc("GET /organizations/{organizationId}", r.organizationHandler.GetOrganization)
	r.mux.HandleFunc("PATCH /organizations/{organizationId}", r.organizationHandler.UpdateOrganization)
	r.mux.HandleFunc("GET /organizations/{organizationId}/locations", r.organizationHandler.GetOrganizationLocations)

	// Service endpoints
	r.mux.HandleFunc("POST /services", r.serviceHandler.CreateService)
	r.mux.HandleFunc("GET /services/{serviceId}", r.serviceHandler.GetService)
	r.mux.HandleFunc("PATCH /services/{serviceId}", r.serviceHandler.UpdateService)
	r.mux.HandleFunc("GET /eligibility-parameters", r.serviceHandler.ListEligibilityParameters)
	r.mux.HandleFunc("GET /languages", r.serviceHandler.ListLanguages)

	// Taxonomy
	r.mux.HandleFunc("GET /taxonomy", r.taxonomyHandler.GetTaxonomy)

	// Comment endpoints
	r.mux.HandleFunc("GET /comments", r.commentHandler.ListComments)
	r.mux.HandleFunc("POST /comments", r.commentHandler.CreateComment)
	r.mux.HandleFunc("POST /comments/{commentId}/reply", r.commentHandler.ReplyToComment)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
