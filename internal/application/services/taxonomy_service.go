package services

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/infrastructure/observability"
)

const hierarchyCacheKey = "taxonomy:hierarchy"

// TaxonomyHierarchy is an immutable, flat view of the taxonomy forest:
// nodes by ID plus a parent to children index.
type TaxonomyHierarchy struct {
	nodes    map[string]*entities.Taxonomy
	children map[string][]string
	roots    []string
}

// NewTaxonomyHierarchy indexes taxonomy rows. Rows whose parent is unknown
// are treated as roots.
func NewTaxonomyHierarchy(rows []*entities.Taxonomy) *TaxonomyHierarchy {
	h := &TaxonomyHierarchy{
		nodes:    make(map[string]*entities.Taxonomy, len(rows)),
		children: make(map[string][]string),
	}
	for _, row := range rows {
		h.nodes[row.ID] = row
	}
	for _, row := range rows {
		if row.ParentID != nil {
			if _, ok := h.nodes[*row.ParentID]; ok && *row.ParentID != row.ID {
				h.children[*row.ParentID] = append(h.children[*row.ParentID], row.ID)
				continue
			}
		}
		h.roots = append(h.roots, row.ID)
	}

	byName := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool {
			a, b := h.nodes[ids[i]], h.nodes[ids[j]]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
	}
	byName(h.roots)
	for _, ids := range h.children {
		byName(ids)
	}
	return h
}

// Len returns the number of taxonomies.
func (h *TaxonomyHierarchy) Len() int {
	return len(h.nodes)
}

// Contains reports whether id is a known taxonomy.
func (h *TaxonomyHierarchy) Contains(id string) bool {
	_, ok := h.nodes[id]
	return ok
}

// AllIDsWithin returns every requested ID that exists together with all of
// its descendants, sorted. Unknown IDs contribute nothing.
func (h *TaxonomyHierarchy) AllIDsWithin(ids []string) []string {
	seen := make(map[string]struct{})
	var stack []string
	for _, id := range ids {
		if _, ok := h.nodes[id]; ok {
			stack = append(stack, id)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, h.children[id]...)
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Forest builds the nested tree returned to clients.
func (h *TaxonomyHierarchy) Forest() []*entities.TaxonomyNode {
	forest := make([]*entities.TaxonomyNode, 0, len(h.roots))
	for _, id := range h.roots {
		forest = append(forest, h.subtree(id, map[string]struct{}{}))
	}
	return forest
}

func (h *TaxonomyHierarchy) subtree(id string, path map[string]struct{}) *entities.TaxonomyNode {
	row := h.nodes[id]
	node := &entities.TaxonomyNode{
		ID:       row.ID,
		Name:     row.Name,
		ParentID: row.ParentID,
		Children: []*entities.TaxonomyNode{},
	}
	path[id] = struct{}{}
	for _, child := range h.children[id] {
		if _, onPath := path[child]; onPath {
			continue
		}
		node.Children = append(node.Children, h.subtree(child, path))
	}
	delete(path, id)
	return node
}

// TaxonomyService resolves the taxonomy hierarchy, cached in process
type TaxonomyService struct {
	repo  repositories.TaxonomyRepository
	cache *gocache.Cache
}

// NewTaxonomyService creates a new taxonomy service. The hierarchy is
// reloaded at most once per ttl unless Invalidate is called.
func NewTaxonomyService(repo repositories.TaxonomyRepository, ttl time.Duration) *TaxonomyService {
	return &TaxonomyService{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Hierarchy returns the cached hierarchy, loading it on a miss.
func (s *TaxonomyService) Hierarchy(ctx context.Context) (*TaxonomyHierarchy, error) {
	if cached, ok := s.cache.Get(hierarchyCacheKey); ok {
		return cached.(*TaxonomyHierarchy), nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	h := NewTaxonomyHierarchy(rows)
	s.cache.SetDefault(hierarchyCacheKey, h)

	observability.LoggerFromContext(ctx).Debug().Int("taxonomies", h.Len()).Msg("loaded taxonomy hierarchy")
	return h, nil
}

// GetHierarchy returns the taxonomy forest.
func (s *TaxonomyService) GetHierarchy(ctx context.Context) ([]*entities.TaxonomyNode, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return h.Forest(), nil
}

// AllIDsWithin expands taxonomy IDs to include all descendants.
func (s *TaxonomyService) AllIDsWithin(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return h.AllIDsWithin(ids), nil
}

// GetByID retrieves a single taxonomy.
func (s *TaxonomyService) GetByID(ctx context.Context, id string) (*entities.Taxonomy, error) {
	return s.repo.GetByID(ctx, id)
}

// Invalidate drops the cached hierarchy.
func (s *TaxonomyService) Invalidate() {
	s.cache.Delete(hierarchyCacheKey)
}
