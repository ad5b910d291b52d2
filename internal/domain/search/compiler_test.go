package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlives/streetlives-api/pkg/geo"
)

func TestCompile_Empty(t *testing.T) {
	plan := Compile(FilterParameters{}, nil)

	assert.Empty(t, plan.Row)
	assert.Empty(t, plan.Group)
	assert.False(t, plan.Unsatisfiable)
	assert.False(t, plan.HasGroupConditions())
}

func TestCompile_RowConditions(t *testing.T) {
	plan := Compile(FilterParameters{
		SearchString:     "  food   pantry ",
		OrganizationName: "Holy Apostles",
		TaxonomyIDs:      []string{"food"},
		ServesZipcode:    "10001",
		Zipcodes:         []string{"10001", "10002"},
	}, []string{"soup", "food"})

	require.Len(t, plan.Row, 5)
	assert.Equal(t, TextMatch{Term: "food pantry"}, plan.Row[0])
	assert.Equal(t, OrganizationNameMatch{Term: "Holy Apostles"}, plan.Row[1])
	assert.Equal(t, TaxonomyIn{IDs: []string{"food", "soup"}}, plan.Row[2])
	assert.Equal(t, ServesZipcode{Zipcode: "10001"}, plan.Row[3])
	assert.Equal(t, AddressIn{Zipcodes: []string{"10001", "10002"}}, plan.Row[4])
	for _, p := range plan.Row {
		assert.Equal(t, LevelRow, p.Level())
	}
}

func TestCompile_UnknownTaxonomiesMatchNothing(t *testing.T) {
	plan := Compile(FilterParameters{TaxonomyIDs: []string{"missing"}}, nil)

	assert.True(t, plan.Unsatisfiable)
	assert.Empty(t, plan.Row)
}

func TestCompile_OpenAtUsesReferenceZone(t *testing.T) {
	// Sunday 10:00 in New York (EDT, UTC-4).
	openAt := time.Date(2020, time.March, 22, 14, 0, 0, 0, time.UTC)

	plan := Compile(FilterParameters{OpenAt: &openAt}, nil)
	require.Len(t, plan.Row, 1)
	assert.Equal(t, OpenAt{Weekday: 7, TimeOfDay: "10:00:00"}, plan.Row[0])

	plan = Compile(FilterParameters{OpenAt: &openAt, Occasion: "COVID-19"}, nil)
	require.Len(t, plan.Row, 1)
	assert.Equal(t, OpenAt{Weekday: 7, TimeOfDay: "10:00:00", Occasion: "COVID-19"}, plan.Row[0])
}

func TestCompile_OccasionAlone(t *testing.T) {
	plan := Compile(FilterParameters{Occasion: "COVID-19"}, nil)

	require.Len(t, plan.Row, 1)
	assert.Equal(t, HasOccasion{Occasion: "COVID-19"}, plan.Row[0])
}

func TestCompile_GroupConditionsAreSorted(t *testing.T) {
	plan := Compile(FilterParameters{
		Eligibility: map[string]interface{}{EligibilityMembership: true, EligibilityGender: "female"},
		Documents:   map[string]bool{DocumentReferralLetter: false, DocumentPhotoID: true},
		TaxonomySpecificAttributes: map[string]string{
			"wearerAge":        "adult",
			"clothingOccasion": "interview",
		},
	}, nil)

	assert.Empty(t, plan.Row)
	assert.Equal(t, []Predicate{
		EligibilityMatch{Parameter: "gender", Value: "female"},
		EligibilityMatch{Parameter: "membership", Value: true},
		DocumentRequirement{Document: "photoId", Required: true},
		DocumentRequirement{Document: "referralLetter", Required: false},
		AttributeMatch{Name: "clothingOccasion", Value: "interview"},
		AttributeMatch{Name: "wearerAge", Value: "adult"},
	}, plan.Group)
	for _, p := range plan.Group {
		assert.Equal(t, LevelGroup, p.Level())
	}
}

func TestQueryPlan_RadiusAndRelaxation(t *testing.T) {
	origin := geo.NewPoint(-73.98, 40.76)
	base := Compile(FilterParameters{SearchString: "shelter"}, nil)

	bounded := base.WithinRadius(origin, 2000).WithLimit(10)
	require.Len(t, bounded.Row, 2)
	wr, ok := bounded.DistanceBound()
	require.True(t, ok)
	assert.Equal(t, 2000.0, wr.Radius)
	assert.Equal(t, 10, bounded.Limit)
	require.NotNil(t, bounded.Origin)

	relaxed := bounded.Relaxed(3)
	_, ok = relaxed.DistanceBound()
	assert.False(t, ok)
	assert.Equal(t, []Predicate{TextMatch{Term: "shelter"}}, relaxed.Row)
	assert.Equal(t, 3, relaxed.Limit)
	assert.Equal(t, origin, *relaxed.Origin)

	// The bounded plan is unchanged.
	_, ok = bounded.DistanceBound()
	assert.True(t, ok)
	assert.Len(t, base.Row, 1)
}

func TestQuery_Validate(t *testing.T) {
	p := geo.NewPoint(-73.98, 40.76)
	valid := Query{Point: &p, Radius: 1000, MaxResults: 10}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		query Query
	}{
		{"point without radius", Query{Point: &p, MaxResults: 10}},
		{"radius without point", Query{Radius: 100, MaxResults: 10}},
		{"radius too large", Query{Point: &p, Radius: 60000, MaxResults: 10}},
		{"zero maxResults", Query{}},
		{"maxResults above cap", Query{MaxResults: 1001}},
		{"min above max", Query{MinResults: 20, MaxResults: 10}},
		{"short organization name", Query{MaxResults: 10, Filters: FilterParameters{OrganizationName: "ab"}}},
		{"bad zipcode", Query{MaxResults: 10, Filters: FilterParameters{Zipcodes: []string{"1234"}}}},
		{"bad serves zipcode", Query{MaxResults: 10, Filters: FilterParameters{ServesZipcode: "abcde"}}},
		{"unknown eligibility", Query{MaxResults: 10, Filters: FilterParameters{
			Eligibility: map[string]interface{}{"shoeSize": "9"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.query.Validate())
		})
	}
}

func TestQuery_ValidateMessages(t *testing.T) {
	p := geo.NewPoint(-73.98, 40.76)

	err := Query{Point: &p, Radius: 0, MaxResults: 10}.Validate()
	assert.EqualError(t, err, "VALIDATION: radius must be between 1 and 50000 meters")

	err = Query{Radius: 100, MaxResults: 10}.Validate()
	assert.EqualError(t, err, "VALIDATION: latitude, longitude and radius must be provided together")

	err = Query{MinResults: 501, MaxResults: 1000}.Validate()
	assert.EqualError(t, err, "VALIDATION: minResults must be between 0 and 500")

	assert.NoError(t, Query{MinResults: 0, MaxResults: 10}.Validate())
}
