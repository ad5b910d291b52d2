package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	"github.com/streetlives/streetlives-api/internal/infrastructure/observability"
	"github.com/streetlives/streetlives-api/pkg/geo"
)

// TaxonomyExpander expands taxonomy IDs to their descendants
type TaxonomyExpander interface {
	AllIDsWithin(ctx context.Context, ids []string) ([]string, error)
}

// SearchService runs location searches
type SearchService struct {
	locations         repositories.LocationRepository
	taxonomies        TaxonomyExpander
	metrics           *observability.Metrics
	defaultMaxResults int
}

// NewSearchService creates a new search service. metrics may be nil.
func NewSearchService(
	locations repositories.LocationRepository,
	taxonomies TaxonomyExpander,
	metrics *observability.Metrics,
	defaultMaxResults int,
) *SearchService {
	if defaultMaxResults <= 0 {
		defaultMaxResults = search.DefaultMaxResults
	}
	return &SearchService{
		locations:         locations,
		taxonomies:        taxonomies,
		metrics:           metrics,
		defaultMaxResults: defaultMaxResults,
	}
}

// Search returns the locations matching q, nearest first when q has a
// point. At most two ID queries are issued: the radius-bounded one and,
// when it yields fewer than MinResults, one without the radius limited to
// MinResults. The matching rows are then loaded in a single snapshot.
func (s *SearchService) Search(ctx context.Context, q search.Query) ([]*entities.Location, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()

	if q.MaxResults == 0 {
		q.MaxResults = s.defaultMaxResults
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	expanded, err := s.taxonomies.AllIDsWithin(ctx, q.Filters.TaxonomyIDs)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	plan := search.Compile(q.Filters, expanded)
	logger := observability.LoggerFromContext(ctx)
	if plan.Unsatisfiable {
		logger.Debug().Strs("taxonomy_ids", q.Filters.TaxonomyIDs).Msg("search filters cannot match, skipping query")
		observability.RecordSearch(ctx, s.metrics, false, 0)
		return []*entities.Location{}, nil
	}

	ids, relaxed, err := s.resolveIDs(ctx, plan, q)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.Int("search.row_conditions", len(plan.Row)),
		attribute.Int("search.group_conditions", len(plan.Group)),
		attribute.Bool("search.relaxed", relaxed),
		attribute.Int("search.results", len(ids)),
	)
	logger.Debug().
		Int("row_conditions", len(plan.Row)).
		Int("group_conditions", len(plan.Group)).
		Bool("relaxed", relaxed).
		Int("results", len(ids)).
		Msg("resolved search location ids")
	observability.RecordSearch(ctx, s.metrics, relaxed, len(ids))

	if len(ids) == 0 {
		return []*entities.Location{}, nil
	}

	occasion := strings.TrimSpace(q.Filters.Occasion)
	start := time.Now()
	fetched, err := s.locations.FetchForSearch(ctx, ids, q.Projection, occasion)
	observability.RecordDBMetric(ctx, s.metrics, "fetch_for_search", time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	for _, loc := range fetched.Locations {
		loc.Closed = isClosedForOccasion(occasion, fetched.Occasions[loc.ID])
		if q.Point != nil {
			if p, ok := loc.Point(); ok {
				d := geo.DistanceMeters(*q.Point, p)
				loc.Distance = &d
			}
		}
	}
	if fetched.Locations == nil {
		return []*entities.Location{}, nil
	}
	return fetched.Locations, nil
}

func (s *SearchService) resolveIDs(ctx context.Context, plan search.QueryPlan, q search.Query) ([]string, bool, error) {
	if q.Point == nil {
		ids, err := s.findIDs(ctx, plan.WithLimit(q.MaxResults))
		return ids, false, err
	}

	bounded := plan.WithinRadius(*q.Point, q.Radius).WithLimit(q.MaxResults)
	ids, err := s.findIDs(ctx, bounded)
	if err != nil {
		return nil, false, err
	}
	if q.MinResults == 0 || len(ids) >= q.MinResults {
		return ids, false, nil
	}

	ids, err = s.findIDs(ctx, bounded.Relaxed(q.MinResults))
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (s *SearchService) findIDs(ctx context.Context, plan search.QueryPlan) ([]string, error) {
	start := time.Now()
	ids, err := s.locations.FindIDs(ctx, plan)
	observability.RecordDBMetric(ctx, s.metrics, "find_location_ids", time.Since(start))
	return ids, err
}

// isClosedForOccasion is true when the location has information for the
// occasion and every one of its services has only closed holiday schedules
// for it. A service without schedules for the occasion counts as closed.
func isClosedForOccasion(occasion string, status *repositories.OccasionStatus) bool {
	if occasion == "" || status == nil || status.EventInfoCount == 0 {
		return false
	}
	for _, closures := range status.ServiceClosures {
		for _, closed := range closures {
			if !closed {
				return false
			}
		}
	}
	return true
}
