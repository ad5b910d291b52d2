package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlives/streetlives-api/internal/domain/search"
	"github.com/streetlives/streetlives-api/pkg/geo"
)

func locationIDsSQL(t *testing.T, plan search.QueryPlan) string {
	t.Helper()
	ds, err := buildLocationIDsQuery(plan)
	require.NoError(t, err)
	query, args, err := ds.ToSQL()
	require.NoError(t, err)
	assert.Empty(t, args)
	return query
}

func TestBuildLocationIDsQuery_Empty(t *testing.T) {
	query := locationIDsSQL(t, search.QueryPlan{})

	assert.Contains(t, query, `SELECT DISTINCT "l"."id" FROM "locations" AS "l"`)
	assert.Contains(t, query, `"l"."hidden_from_search" IS NOT TRUE`)
	assert.Contains(t, query, `ORDER BY "l"."id" ASC`)
	assert.NotContains(t, query, "JOIN")
	assert.NotContains(t, query, "GROUP BY")
	assert.NotContains(t, query, "LIMIT")
}

func TestBuildLocationIDsQuery_TextAndTaxonomy(t *testing.T) {
	query := locationIDsSQL(t, search.QueryPlan{
		Row: []search.Predicate{
			search.TextMatch{Term: "food"},
			search.TaxonomyIn{IDs: []string{"t1", "t2"}},
		},
		Limit: 25,
	})

	assert.Contains(t, query, `LEFT JOIN "organizations" AS "o"`)
	assert.Contains(t, query, `LEFT JOIN "service_at_location" AS "sal"`)
	assert.Contains(t, query, `LEFT JOIN "taxonomies" AS "t"`)
	assert.Contains(t, query, `"o"."name" ILIKE '%food%'`)
	assert.Contains(t, query, `"t"."name" ILIKE '%food%'`)
	assert.Contains(t, query, `"t"."id" IN ('t1', 't2')`)
	assert.Contains(t, query, "LIMIT 25")
	assert.NotContains(t, query, `"l"."name"`)
}

func TestBuildLocationIDsQuery_OpenAt(t *testing.T) {
	t.Run("regular schedule", func(t *testing.T) {
		query := locationIDsSQL(t, search.QueryPlan{
			Row: []search.Predicate{search.OpenAt{Weekday: 3, TimeOfDay: "10:30:00"}},
		})

		assert.Contains(t, query, `LEFT JOIN "regular_schedules" AS "rs"`)
		assert.Contains(t, query, `"rs"."weekday" = 3`)
		assert.Contains(t, query, `"rs"."opens_at" <= '10:30:00'`)
		assert.Contains(t, query, `"rs"."closes_at" > '10:30:00'`)
		assert.NotContains(t, query, "holiday_schedules")
	})

	t.Run("occasion", func(t *testing.T) {
		query := locationIDsSQL(t, search.QueryPlan{
			Row: []search.Predicate{search.OpenAt{Weekday: 1, TimeOfDay: "09:00:00", Occasion: "COVID19"}},
		})

		assert.Contains(t, query, `LEFT JOIN "holiday_schedules" AS "hs"`)
		assert.Contains(t, query, `"hs"."occasion" = 'COVID19'`)
		assert.Contains(t, query, `"hs"."closed" IS NOT TRUE`)
		assert.NotContains(t, query, "regular_schedules")
	})
}

func TestBuildLocationIDsQuery_Zipcodes(t *testing.T) {
	query := locationIDsSQL(t, search.QueryPlan{
		Row: []search.Predicate{
			search.ServesZipcode{Zipcode: "10001"},
			search.AddressIn{Zipcodes: []string{"10002"}},
		},
	})

	assert.Contains(t, query, `"sa"."postal_codes" IS NULL`)
	assert.Contains(t, query, `'10001' = ANY(sa.postal_codes)`)
	assert.Contains(t, query, `"pa"."postal_code" IN ('10002')`)
}

func TestBuildLocationIDsQuery_DistanceOrdering(t *testing.T) {
	plan := search.QueryPlan{}.WithinRadius(geo.NewPoint(-73.99, 40.75), 1000)
	query := locationIDsSQL(t, plan)

	assert.Contains(t, query, `SELECT DISTINCT "l"."id", `)
	assert.Contains(t, query, `AS "distance"`)
	assert.Contains(t, query, "<= 1000")
	assert.Contains(t, query, `ORDER BY "distance" ASC, "l"."id" ASC`)
}

func TestBuildLocationIDsQuery_GroupConditions(t *testing.T) {
	query := locationIDsSQL(t, search.QueryPlan{
		Group: []search.Predicate{
			search.EligibilityMatch{Parameter: "age", Value: 25},
			search.DocumentRequirement{Document: "photoID", Required: false},
			search.AttributeMatch{Name: "clothingOccasion", Value: "interview"},
		},
	})

	assert.Contains(t, query, `"s"."id" IS NOT NULL`)
	assert.Contains(t, query, `GROUP BY "l"."id", "s"."id"`)
	assert.Contains(t, query, "HAVING")
	assert.Contains(t, query, `e.eligible_values @> '[25]'::jsonb OR e.eligible_values @> '["25"]'::jsonb`)
	assert.Contains(t, query, `FILTER (WHERE ep.name = 'age'), TRUE)`)
	assert.Contains(t, query, `NOT COALESCE(BOOL_OR(lower(rd.document) = lower('photoID')), FALSE)`)
	assert.Contains(t, query, `sta.attribute_values @> '["interview"]'::jsonb`)
	assert.Contains(t, query, `FILTER (WHERE tsa.name = 'clothingOccasion'), FALSE)`)
}

func TestBuildLocationIDsQuery_StringEligibility(t *testing.T) {
	query := locationIDsSQL(t, search.QueryPlan{
		Group: []search.Predicate{search.EligibilityMatch{Parameter: "gender", Value: "female"}},
	})

	assert.Contains(t, query, `e.eligible_values @> '["female"]'::jsonb`)
	assert.NotContains(t, query, " OR e.eligible_values")
}

func TestJoinsFor(t *testing.T) {
	j := joinsFor(search.QueryPlan{Row: []search.Predicate{search.OrganizationNameMatch{Term: "x"}}})
	assert.Equal(t, locationJoins{organization: true}, j)

	j = joinsFor(search.QueryPlan{Group: []search.Predicate{search.DocumentRequirement{Document: "id"}}})
	assert.Equal(t, locationJoins{services: true, documents: true}, j)
}
