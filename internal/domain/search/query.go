package search

import (
	"regexp"
	"time"

	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
	"github.com/streetlives/streetlives-api/pkg/geo"
)

// Limits accepted for search queries.
const (
	MaxRadiusMeters        = 50000
	MaxMinResults          = 500
	MaxMaxResults          = 1000
	DefaultMaxResults      = 1000
	MinOrganizationNameLen = 3
)

var zipcodePattern = regexp.MustCompile(`^\d{5}$`)

// Projection selects how much associated data a search returns.
type Projection int

const (
	// ProjectionFull returns organization, services with taxonomies and
	// required documents, phones and addresses.
	ProjectionFull Projection = iota
	// ProjectionBasicMap returns organization, services with taxonomies and
	// addresses; enough to draw map pins.
	ProjectionBasicMap
	// ProjectionLocationOnly returns location columns only.
	ProjectionLocationOnly
)

// FilterParameters are the non-geometric search filters. Zero values mean
// "no filter".
type FilterParameters struct {
	SearchString     string
	OrganizationName string
	// TaxonomyIDs are the requested taxonomies, before hierarchy expansion.
	TaxonomyIDs []string
	OpenAt      *time.Time
	Occasion    string
	// ServesZipcode filters on service areas.
	ServesZipcode string
	// Zipcodes filters on the location's own address.
	Zipcodes                   []string
	Eligibility                map[string]interface{}
	Documents                  map[string]bool
	TaxonomySpecificAttributes map[string]string
}

// Query is a full location search request.
type Query struct {
	Point  *geo.Point
	Radius float64
	// MinResults of zero disables radius relaxation.
	MinResults int
	// MaxResults of zero is replaced by the searcher's default before
	// validation.
	MaxResults int
	Filters    FilterParameters
	Projection Projection
}

// HasPoint reports whether the search is anchored at a point.
func (q Query) HasPoint() bool {
	return q.Point != nil
}

// Validate checks geometry and limits. A radius needs a point and a point
// needs a positive radius.
func (q Query) Validate() error {
	if q.Point == nil && q.Radius != 0 {
		return apperrors.NewValidationError("latitude, longitude and radius must be provided together")
	}
	if q.Point != nil {
		if err := q.Point.Validate(); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if q.Radius <= 0 || q.Radius > MaxRadiusMeters {
			return apperrors.NewValidationErrorf("radius must be between 1 and %d meters", MaxRadiusMeters)
		}
	}
	if q.MinResults < 0 || q.MinResults > MaxMinResults {
		return apperrors.NewValidationErrorf("minResults must be between 0 and %d", MaxMinResults)
	}
	if q.MaxResults <= 0 || q.MaxResults > MaxMaxResults {
		return apperrors.NewValidationErrorf("maxResults must be between 1 and %d", MaxMaxResults)
	}
	if q.MinResults > q.MaxResults {
		return apperrors.NewValidationError("maxResults must not be less than minResults")
	}

	f := q.Filters
	if f.OrganizationName != "" && len([]rune(f.OrganizationName)) < MinOrganizationNameLen {
		return apperrors.NewValidationErrorf("organizationName must be at least %d characters", MinOrganizationNameLen)
	}
	for _, z := range f.Zipcodes {
		if !zipcodePattern.MatchString(z) {
			return apperrors.NewValidationErrorf("zipcode %q must be 5 digits", z)
		}
	}
	if f.ServesZipcode != "" && !zipcodePattern.MatchString(f.ServesZipcode) {
		return apperrors.NewValidationErrorf("servesZipcode %q must be 5 digits", f.ServesZipcode)
	}
	for name := range f.Eligibility {
		if !IsEligibilityParameter(name) {
			return apperrors.NewValidationErrorf("unknown eligibility parameter %q", name)
		}
	}
	return nil
}
