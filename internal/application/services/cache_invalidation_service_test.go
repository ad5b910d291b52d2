package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/streetlives/streetlives-api/internal/application/services"
	"github.com/streetlives/streetlives-api/internal/domain/providers"
)

// MockCacheProvider for testing
type MockCacheProvider struct {
	mu       sync.RWMutex
	data     map[string][]byte
	deleted  []string
	patterns []string
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{
		data:    make(map[string][]byte),
		deleted: make([]string, 0),
	}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

// DeletePattern only understands a trailing "*"
func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	prefix := pattern
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		prefix = pattern[:n-1]
	}
	for key := range m.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) DeletedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.deleted)
}

func (m *MockCacheProvider) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.patterns...)
}

func TestCacheInvalidationService_InvalidateReadCaches(t *testing.T) {
	cache := NewMockCacheProvider()
	service := services.NewCacheInvalidationService(cache, nil)

	ctx := context.Background()
	for _, key := range []string{"http:cache:/locations:abc", "http:cache:/organizations:def", "taxonomy:other"} {
		if err := cache.Set(ctx, key, []byte("data"), 300); err != nil {
			t.Fatalf("Failed to seed cache data: %v", err)
		}
	}

	if err := service.InvalidateReadCaches(ctx); err != nil {
		t.Fatalf("Failed to invalidate read caches: %v", err)
	}

	if cache.DeletedCount() != 2 {
		t.Errorf("Expected 2 deleted keys, got %d", cache.DeletedCount())
	}
	if ok, _ := cache.Exists(ctx, "taxonomy:other"); !ok {
		t.Error("Expected keys outside the response cache to survive")
	}
}

func TestCacheInvalidationService_InvalidateTaxonomy(t *testing.T) {
	cache := NewMockCacheProvider()
	repo := &countingTaxonomyRepo{rows: taxonomyRows()}
	taxonomies := services.NewTaxonomyService(repo, time.Minute)
	service := services.NewCacheInvalidationService(cache, taxonomies)

	ctx := context.Background()
	if _, err := taxonomies.GetHierarchy(ctx); err != nil {
		t.Fatalf("Failed to load hierarchy: %v", err)
	}
	if err := cache.Set(ctx, "http:cache:/taxonomy:abc", []byte("data"), 300); err != nil {
		t.Fatalf("Failed to seed cache data: %v", err)
	}

	if err := service.InvalidateTaxonomy(ctx); err != nil {
		t.Fatalf("Failed to invalidate taxonomy: %v", err)
	}
	if _, err := taxonomies.GetHierarchy(ctx); err != nil {
		t.Fatalf("Failed to reload hierarchy: %v", err)
	}

	if repo.loads != 2 {
		t.Errorf("Expected hierarchy to be reloaded, got %d loads", repo.loads)
	}
	if got := cache.Patterns(); len(got) != 1 || got[0] != "http:cache:/taxonomy*" {
		t.Errorf("Unexpected patterns %v", got)
	}
	if cache.DeletedCount() != 1 {
		t.Errorf("Expected 1 deleted key, got %d", cache.DeletedCount())
	}
}

func TestCacheInvalidationService_NilCache(t *testing.T) {
	service := services.NewCacheInvalidationService(nil, nil)

	if err := service.InvalidateReadCaches(context.Background()); err != nil {
		t.Errorf("Expected no error without a cache, got %v", err)
	}
	if err := service.InvalidateTaxonomy(context.Background()); err != nil {
		t.Errorf("Expected no error without a cache, got %v", err)
	}
}
