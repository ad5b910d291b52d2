package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/streetlives/streetlives-api/internal/domain/providers"
)

// MemoryAdapter implements CacheProvider in process. It backs the response
// cache when Redis is not configured.
type MemoryAdapter struct {
	cache *gocache.Cache
}

// NewMemoryAdapter creates an in-memory cache with the given default TTL
func NewMemoryAdapter(defaultTTL time.Duration) providers.CacheProvider {
	return &MemoryAdapter{cache: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := a.cache.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v.([]byte), nil
}

func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	ttl := gocache.DefaultExpiration
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}
	a.cache.Set(key, value, ttl)
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.cache.Delete(key)
	return nil
}

func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.cache.Get(key)
	return ok, nil
}

// DeletePattern supports the '*' and '?' wildcards of Redis MATCH.
func (a *MemoryAdapter) DeletePattern(_ context.Context, pattern string) error {
	re, err := globToRegexp(pattern)
	if err != nil {
		return err
	}
	for key := range a.cache.Items() {
		if re.MatchString(key) {
			a.cache.Delete(key)
		}
	}
	return nil
}

func globToRegexp(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\?`, ".")
	return regexp.Compile("^" + quoted + "$")
}
