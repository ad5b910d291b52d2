package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/streetlives/streetlives-api/internal/domain/providers"
)

// ResponseCachePrefix prefixes every cached HTTP response key. Keys are
// ResponseCachePrefix + request path + ":" + query hash.
const ResponseCachePrefix = "http:cache:"

// CacheInvalidationService purges cached reads after writes
type CacheInvalidationService struct {
	cache      providers.CacheProvider
	taxonomies *TaxonomyService
}

// NewCacheInvalidationService creates a new cache invalidation service.
// Either argument may be nil.
func NewCacheInvalidationService(cache providers.CacheProvider, taxonomies *TaxonomyService) *CacheInvalidationService {
	return &CacheInvalidationService{
		cache:      cache,
		taxonomies: taxonomies,
	}
}

// InvalidateReadCaches drops every cached response. Search results may
// depend on any organization, location or service row, so a write
// invalidates all of them.
func (s *CacheInvalidationService) InvalidateReadCaches(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	pattern := ResponseCachePrefix + "*"
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
	}
	log.Debug().Str("pattern", pattern).Msg("Invalidated cached responses")
	return nil
}

// InvalidateTaxonomy drops the in-process hierarchy and cached taxonomy responses
func (s *CacheInvalidationService) InvalidateTaxonomy(ctx context.Context) error {
	if s.taxonomies != nil {
		s.taxonomies.Invalidate()
	}
	if s.cache == nil {
		return nil
	}
	pattern := ResponseCachePrefix + "/taxonomy*"
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
	}
	return nil
}
