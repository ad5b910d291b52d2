package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/streetlives/streetlives-api/internal/application/services"
	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
	"github.com/streetlives/streetlives-api/pkg/geo"
)

// MockLocationRepository for testing
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindIDs(ctx context.Context, plan search.QueryPlan) ([]string, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLocationRepository) FetchForSearch(ctx context.Context, ids []string, projection search.Projection, occasion string) (*repositories.SearchFetch, error) {
	args := m.Called(ctx, ids, projection, occasion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.SearchFetch), args.Error(1)
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

func (m *MockLocationRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocationRepository) OrganizationID(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockLocationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*entities.Location, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Location), args.Error(1)
}

func (m *MockLocationRepository) Create(ctx context.Context, location entities.NewLocation) (*entities.Location, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

func (m *MockLocationRepository) Update(ctx context.Context, id string, update entities.LocationUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

// stubExpander expands taxonomy IDs from a fixed table
type stubExpander struct {
	expansions map[string][]string
	err        error
}

func (s *stubExpander) AllIDsWithin(_ context.Context, ids []string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []string{}
	for _, id := range ids {
		out = append(out, s.expansions[id]...)
	}
	return out, nil
}

var (
	origin = geo.NewPoint(-73.981452, 40.763765)
	near   = entities.Position{Longitude: -73.991303, Latitude: 40.751908}
	far    = entities.Position{Longitude: -73.951042, Latitude: 40.718576}
)

func location(id string, pos entities.Position) *entities.Location {
	p := pos
	return &entities.Location{ID: id, Position: &p}
}

func hasRadius(plan search.QueryPlan) bool {
	_, ok := plan.DistanceBound()
	return ok
}

func TestSearchService_RadiusOnly(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.MatchedBy(func(p search.QueryPlan) bool {
		return hasRadius(p) && p.Limit == 1000 && p.Origin != nil
	})).Return([]string{"a"}, nil).Once()
	repo.On("FetchForSearch", mock.Anything, []string{"a"}, search.ProjectionFull, "").
		Return(&repositories.SearchFetch{Locations: []*entities.Location{location("a", near)}}, nil).Once()

	results, err := svc.Search(ctx, search.Query{Point: &origin, Radius: 2000})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	require.NotNil(t, results[0].Distance)
	assert.InDelta(t, 1557, *results[0].Distance, 25)
	assert.False(t, results[0].Closed)
	repo.AssertExpectations(t)
}

func TestSearchService_MinResultsRelaxesRadius(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.MatchedBy(func(p search.QueryPlan) bool {
		return hasRadius(p) && p.Limit == 10
	})).Return([]string{"a", "b"}, nil).Once()
	repo.On("FindIDs", mock.Anything, mock.MatchedBy(func(p search.QueryPlan) bool {
		return !hasRadius(p) && p.Limit == 3 && p.Origin != nil && len(p.Row) == 1
	})).Return([]string{"a", "b", "c"}, nil).Once()
	repo.On("FetchForSearch", mock.Anything, []string{"a", "b", "c"}, search.ProjectionFull, "").
		Return(&repositories.SearchFetch{Locations: []*entities.Location{
			location("a", near), location("b", near), location("c", far),
		}}, nil).Once()

	results, err := svc.Search(ctx, search.Query{
		Point:      &origin,
		Radius:     2000,
		MinResults: 3,
		MaxResults: 10,
		Filters:    search.FilterParameters{SearchString: "pantry"},
	})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].ID, results[1].ID, results[2].ID})
	assert.LessOrEqual(t, *results[1].Distance, *results[2].Distance)
	repo.AssertExpectations(t)
}

func TestSearchService_MinResultsSatisfiedSkipsRelaxation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.Anything).Return([]string{"a", "b"}, nil).Once()
	repo.On("FetchForSearch", mock.Anything, []string{"a", "b"}, search.ProjectionBasicMap, "").
		Return(&repositories.SearchFetch{Locations: []*entities.Location{location("a", near), location("b", near)}}, nil).Once()

	results, err := svc.Search(ctx, search.Query{
		Point: &origin, Radius: 2000, MinResults: 2, MaxResults: 5, Projection: search.ProjectionBasicMap,
	})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	repo.AssertNumberOfCalls(t, "FindIDs", 1)
}

func TestSearchService_NoPointUsesFiltersOnly(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 50)

	repo.On("FindIDs", mock.Anything, mock.MatchedBy(func(p search.QueryPlan) bool {
		return !hasRadius(p) && p.Origin == nil && p.Limit == 50
	})).Return([]string{"x"}, nil).Once()
	repo.On("FetchForSearch", mock.Anything, []string{"x"}, search.ProjectionFull, "").
		Return(&repositories.SearchFetch{Locations: []*entities.Location{location("x", far)}}, nil).Once()

	results, err := svc.Search(ctx, search.Query{Filters: search.FilterParameters{OrganizationName: "Holy Apostles"}})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Distance)
	repo.AssertExpectations(t)
}

func TestSearchService_EmptyResult(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.Anything).Return([]string{}, nil).Once()

	results, err := svc.Search(ctx, search.Query{Point: &origin, Radius: 100})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	repo.AssertNotCalled(t, "FetchForSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchService_UnknownTaxonomySkipsStore(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	results, err := svc.Search(ctx, search.Query{
		Point: &origin, Radius: 100,
		Filters: search.FilterParameters{TaxonomyIDs: []string{"nope"}},
	})

	require.NoError(t, err)
	assert.Empty(t, results)
	repo.AssertNotCalled(t, "FindIDs", mock.Anything, mock.Anything)
}

func TestSearchService_ExpandsTaxonomies(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	expander := &stubExpander{expansions: map[string][]string{"food": {"food", "pantry", "soup"}}}
	svc := services.NewSearchService(repo, expander, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.MatchedBy(func(p search.QueryPlan) bool {
		for _, pred := range p.Row {
			if in, ok := pred.(search.TaxonomyIn); ok {
				return assert.ObjectsAreEqual([]string{"food", "pantry", "soup"}, in.IDs)
			}
		}
		return false
	})).Return([]string{}, nil).Once()

	_, err := svc.Search(ctx, search.Query{Filters: search.FilterParameters{TaxonomyIDs: []string{"food"}}})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSearchService_ClosedForOccasion(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.Anything).Return([]string{"closed", "open", "noinfo", "noschedules"}, nil).Once()
	repo.On("FetchForSearch", mock.Anything, []string{"closed", "open", "noinfo", "noschedules"}, search.ProjectionFull, "COVID-19").
		Return(&repositories.SearchFetch{
			Locations: []*entities.Location{
				location("closed", near), location("open", near), location("noinfo", near), location("noschedules", near),
			},
			Occasions: map[string]*repositories.OccasionStatus{
				"closed": {EventInfoCount: 1, ServiceClosures: map[string][]bool{"s1": {true, true}, "s2": {true}}},
				"open":   {EventInfoCount: 1, ServiceClosures: map[string][]bool{"s1": {true}, "s2": {false}}},
				"noinfo": {EventInfoCount: 0, ServiceClosures: map[string][]bool{"s1": {true}}},
				// A service with no schedules for the occasion counts as closed.
				"noschedules": {EventInfoCount: 2, ServiceClosures: map[string][]bool{"s1": {}}},
			},
		}, nil).Once()

	results, err := svc.Search(ctx, search.Query{Filters: search.FilterParameters{Occasion: "COVID-19"}})

	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.True(t, results[0].Closed)
	assert.False(t, results[1].Closed)
	assert.False(t, results[2].Closed)
	assert.True(t, results[3].Closed)
}

func TestSearchService_ClosedNeedsOccasion(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	repo.On("FindIDs", mock.Anything, mock.Anything).Return([]string{"a"}, nil).Once()
	repo.On("FetchForSearch", mock.Anything, []string{"a"}, search.ProjectionFull, "").
		Return(&repositories.SearchFetch{
			Locations: []*entities.Location{location("a", near)},
			Occasions: map[string]*repositories.OccasionStatus{"a": {EventInfoCount: 1}},
		}, nil).Once()

	results, err := svc.Search(ctx, search.Query{})

	require.NoError(t, err)
	assert.False(t, results[0].Closed)
}

func TestSearchService_OpenAtIsCompiled(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLocationRepository)
	svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)

	// Sunday 10:00 in New York.
	openAt := time.Date(2020, time.March, 22, 14, 0, 0, 0, time.UTC)
	repo.On("FindIDs", mock.Anything, mock.MatchedBy(func(p search.QueryPlan) bool {
		return len(p.Row) == 1 && p.Row[0] == search.OpenAt{Weekday: 7, TimeOfDay: "10:00:00"}
	})).Return([]string{}, nil).Once()

	_, err := svc.Search(ctx, search.Query{Filters: search.FilterParameters{OpenAt: &openAt}})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSearchService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		svc := services.NewSearchService(new(MockLocationRepository), &stubExpander{}, nil, 1000)
		_, err := svc.Search(ctx, search.Query{Point: &origin})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("store failure is propagated", func(t *testing.T) {
		repo := new(MockLocationRepository)
		svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)
		storeErr := apperrors.NewInternalError("failed to search locations", errors.New("connection refused"))
		repo.On("FindIDs", mock.Anything, mock.Anything).Return(nil, storeErr).Once()

		results, err := svc.Search(ctx, search.Query{})
		assert.Nil(t, results)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("relaxed query failure returns no partial results", func(t *testing.T) {
		repo := new(MockLocationRepository)
		svc := services.NewSearchService(repo, &stubExpander{}, nil, 1000)
		repo.On("FindIDs", mock.Anything, mock.MatchedBy(hasRadius)).Return([]string{"a"}, nil).Once()
		repo.On("FindIDs", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

		results, err := svc.Search(ctx, search.Query{Point: &origin, Radius: 100, MinResults: 5, MaxResults: 10})
		assert.Nil(t, results)
		assert.Error(t, err)
	})

	t.Run("taxonomy load failure", func(t *testing.T) {
		svc := services.NewSearchService(new(MockLocationRepository), &stubExpander{err: errors.New("db down")}, nil, 1000)
		_, err := svc.Search(ctx, search.Query{})
		assert.Error(t, err)
	})
}
