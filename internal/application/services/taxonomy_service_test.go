package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlives/streetlives-api/internal/application/services"
	"github.com/streetlives/streetlives-api/internal/domain/entities"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

// countingTaxonomyRepo serves a fixed set of rows and counts loads
type countingTaxonomyRepo struct {
	rows  []*entities.Taxonomy
	loads int
	err   error
}

func (r *countingTaxonomyRepo) ListAll(_ context.Context) ([]*entities.Taxonomy, error) {
	r.loads++
	return r.rows, r.err
}

func (r *countingTaxonomyRepo) GetByID(_ context.Context, id string) (*entities.Taxonomy, error) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, apperrors.NewNotFoundError("taxonomy not found")
}

func strPtr(s string) *string { return &s }

func taxonomyRows() []*entities.Taxonomy {
	return []*entities.Taxonomy{
		{ID: "food", Name: "Food"},
		{ID: "pantry", Name: "Food Pantry", ParentID: strPtr("food")},
		{ID: "soup", Name: "Soup Kitchen", ParentID: strPtr("food")},
		{ID: "mobile", Name: "Mobile Pantry", ParentID: strPtr("pantry")},
		{ID: "shelter", Name: "Shelter"},
		{ID: "orphan", Name: "Orphan", ParentID: strPtr("gone")},
	}
}

func TestTaxonomyHierarchy_AllIDsWithin(t *testing.T) {
	h := services.NewTaxonomyHierarchy(taxonomyRows())

	assert.Equal(t, []string{"food", "mobile", "pantry", "soup"}, h.AllIDsWithin([]string{"food"}))
	assert.Equal(t, []string{"mobile", "pantry"}, h.AllIDsWithin([]string{"pantry"}))
	assert.Equal(t, []string{"mobile", "pantry", "shelter"}, h.AllIDsWithin([]string{"pantry", "shelter", "unknown"}))
	assert.Empty(t, h.AllIDsWithin([]string{"unknown"}))
	assert.Empty(t, h.AllIDsWithin(nil))
}

func TestTaxonomyHierarchy_ExpansionIsIdempotent(t *testing.T) {
	h := services.NewTaxonomyHierarchy(taxonomyRows())

	for _, ids := range [][]string{{"food"}, {"pantry", "shelter"}, {"soup"}, {"orphan", "mobile"}} {
		once := h.AllIDsWithin(ids)
		assert.Equal(t, once, h.AllIDsWithin(once), "expanding %v twice", ids)
	}
}

func TestTaxonomyHierarchy_Forest(t *testing.T) {
	h := services.NewTaxonomyHierarchy(taxonomyRows())
	forest := h.Forest()

	require.Len(t, forest, 3)
	assert.Equal(t, "Food", forest[0].Name)
	assert.Equal(t, "Orphan", forest[1].Name)
	assert.Equal(t, "Shelter", forest[2].Name)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "Food Pantry", forest[0].Children[0].Name)
	require.Len(t, forest[0].Children[0].Children, 1)
	assert.Equal(t, "mobile", forest[0].Children[0].Children[0].ID)
	assert.Empty(t, forest[2].Children)
}

func TestTaxonomyHierarchy_CorruptCycleTerminates(t *testing.T) {
	rows := []*entities.Taxonomy{
		{ID: "root", Name: "Root"},
		{ID: "a", Name: "A", ParentID: strPtr("b")},
		{ID: "b", Name: "B", ParentID: strPtr("a")},
		{ID: "self", Name: "Self", ParentID: strPtr("self")},
	}
	h := services.NewTaxonomyHierarchy(rows)

	assert.Equal(t, []string{"a", "b"}, h.AllIDsWithin([]string{"a"}))
	assert.Equal(t, []string{"self"}, h.AllIDsWithin([]string{"self"}))
	assert.NotPanics(t, func() { h.Forest() })
}

func TestTaxonomyService_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	repo := &countingTaxonomyRepo{rows: taxonomyRows()}
	svc := services.NewTaxonomyService(repo, time.Minute)

	ids, err := svc.AllIDsWithin(ctx, []string{"pantry"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mobile", "pantry"}, ids)

	_, err = svc.GetHierarchy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)

	svc.Invalidate()
	_, err = svc.GetHierarchy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
}

func TestTaxonomyService_EmptyRequestSkipsLoad(t *testing.T) {
	repo := &countingTaxonomyRepo{rows: taxonomyRows()}
	svc := services.NewTaxonomyService(repo, time.Minute)

	ids, err := svc.AllIDsWithin(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, repo.loads)
}

func TestTaxonomyService_LoadErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo := &countingTaxonomyRepo{err: errors.New("db down")}
	svc := services.NewTaxonomyService(repo, time.Minute)

	_, err := svc.GetHierarchy(ctx)
	assert.Error(t, err)

	repo.err = nil
	repo.rows = taxonomyRows()
	forest, err := svc.GetHierarchy(ctx)
	require.NoError(t, err)
	assert.Len(t, forest, 3)
}
