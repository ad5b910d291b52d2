package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/streetlives/streetlives-api/internal/application/services"
	"github.com/streetlives/streetlives-api/internal/domain/providers"
	"github.com/streetlives/streetlives-api/internal/infrastructure/observability"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// Invalidator purges cached reads after a successful write
type Invalidator interface {
	InvalidateReadCaches(ctx context.Context) error
}

// CacheMiddleware caches GET responses and purges them after writes
type CacheMiddleware struct {
	cache        providers.CacheProvider
	invalidator  Invalidator
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware. searchTTLSeconds
// applies to GET /locations; the other read routes use longer TTLs.
func NewCacheMiddleware(cache providers.CacheProvider, invalidator Invalidator, metrics *observability.Metrics, searchTTLSeconds int) *CacheMiddleware {
	return &CacheMiddleware{
		cache:       cache,
		invalidator: invalidator,
		metrics:     metrics,
		routeConfigs: map[string]CacheConfig{
			"/locations":              {TTLSeconds: searchTTLSeconds, Enabled: searchTTLSeconds > 0},
			"/locations/":             {TTLSeconds: 300, Enabled: true}, // prefix match
			"/organizations":          {TTLSeconds: 600, Enabled: true},
			"/organizations/":         {TTLSeconds: 600, Enabled: true}, // prefix match
			"/services/":              {TTLSeconds: 300, Enabled: true}, // prefix match
			"/taxonomy":               {TTLSeconds: 3600, Enabled: true},
			"/comments":               {TTLSeconds: 60, Enabled: true},
			"/eligibility-parameters": {TTLSeconds: 3600, Enabled: true},
			"/languages":              {TTLSeconds: 3600, Enabled: true},
		},
	}
}

// CacheMiddlewareWithConfig creates a cache middleware with custom route config
func CacheMiddlewareWithConfig(cache providers.CacheProvider, invalidator Invalidator, configs map[string]CacheConfig) *CacheMiddleware {
	return &CacheMiddleware{
		cache:        cache,
		invalidator:  invalidator,
		routeConfigs: configs,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			m.serveWrite(next, w, r)
			return
		}

		if m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config, route := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx)
		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			logger.Debug().Str("key", cacheKey).Msg("cache hit")
			observability.RecordCacheHit(ctx, m.metrics, route)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		logger.Debug().Str("key", cacheKey).Msg("cache miss")
		observability.RecordCacheMiss(ctx, m.metrics, route)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			}
		}
	})
}

// serveWrite runs a write request and purges cached reads when it succeeds
func (m *CacheMiddleware) serveWrite(next http.Handler, w http.ResponseWriter, r *http.Request) {
	if m.invalidator == nil || r.Method == http.MethodOptions || r.Method == http.MethodHead {
		next.ServeHTTP(w, r)
		return
	}

	rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	next.ServeHTTP(rw, r)

	if rw.statusCode >= 200 && rw.statusCode < 300 {
		if err := m.invalidator.InvalidateReadCaches(r.Context()); err != nil {
			observability.LoggerFromContext(r.Context()).Error().
				Err(err).
				Str("path", r.URL.Path).
				Msg("failed to invalidate response cache")
		}
	}
}

// getRouteConfig returns the cache configuration for a path and the route
// it matched. Keys ending in "/" match by prefix, the longest one winning.
func (m *CacheMiddleware) getRouteConfig(path string) (CacheConfig, string) {
	if config, exists := m.routeConfigs[path]; exists {
		return config, path
	}

	best, route := CacheConfig{Enabled: false}, ""
	for pattern, config := range m.routeConfigs {
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) && len(pattern) > len(route) {
			best, route = config, pattern
		}
	}
	return best, route
}

// generateCacheKey builds ResponseCachePrefix + path + ":" + hash of the
// method, path and raw query.
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := fmt.Sprintf("%s:%s", r.Method, r.URL.Path)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	hash := sha256.Sum256([]byte(key))
	return services.ResponseCachePrefix + r.URL.Path + ":" + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
