package handlers

import (
	"net/url"
	"strings"

	"github.com/streetlives/streetlives-api/internal/domain/search"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
	"github.com/streetlives/streetlives-api/pkg/geo"
	"github.com/streetlives/streetlives-api/pkg/utils"
)

// parseSearchQuery converts the query string of GET /locations into a
// search query. Range checks are left to search.Query.Validate.
func parseSearchQuery(values url.Values) (search.Query, error) {
	var q search.Query

	lat, hasLat, err := utils.ParseFloat(values.Get("latitude"))
	if err != nil {
		return q, apperrors.NewValidationError("latitude: " + err.Error())
	}
	lon, hasLon, err := utils.ParseFloat(values.Get("longitude"))
	if err != nil {
		return q, apperrors.NewValidationError("longitude: " + err.Error())
	}
	radius, hasRadius, err := utils.ParseFloat(values.Get("radius"))
	if err != nil {
		return q, apperrors.NewValidationError("radius: " + err.Error())
	}
	if hasLat || hasLon || hasRadius {
		if !hasLat || !hasLon || !hasRadius {
			return q, apperrors.NewValidationError("latitude, longitude and radius must be provided together")
		}
		point := geo.NewPoint(lon, lat)
		q.Point = &point
		q.Radius = radius
	}

	if q.MinResults, err = parseResultLimit(values, "minResults"); err != nil {
		return q, err
	}
	if q.MaxResults, err = parseResultLimit(values, "maxResults"); err != nil {
		return q, err
	}

	f := &q.Filters
	f.SearchString = strings.TrimSpace(values.Get("searchString"))
	f.OrganizationName = strings.TrimSpace(values.Get("organizationName"))
	f.TaxonomyIDs = utils.SplitList(values.Get("taxonomyId"))
	f.Occasion = values.Get("occasion")
	f.ServesZipcode = values.Get("servesZipcode")
	for _, raw := range arrayParam(values, "zipcodes") {
		f.Zipcodes = append(f.Zipcodes, utils.SplitList(raw)...)
	}

	if raw := values.Get("openAt"); raw != "" {
		openAt, err := utils.ParseDateTime(raw)
		if err != nil {
			return q, apperrors.NewValidationErrorf("openAt %q must be an ISO 8601 date-time", raw)
		}
		f.OpenAt = &openAt
	}

	if err := parseDocumentFilters(values, f); err != nil {
		return q, err
	}
	if err := parseEligibilityFilters(values, f); err != nil {
		return q, err
	}

	if attrs := arrayParam(values, "taxonomySpecificAttributes"); len(attrs) > 0 {
		pairs, err := utils.KeyValuePairs(attrs)
		if err != nil {
			return q, apperrors.NewValidationError("taxonomySpecificAttributes: " + err.Error())
		}
		f.TaxonomySpecificAttributes = pairs
	}

	locationOnly, err := utils.ParseBool(values.Get("locationFieldsOnly"), false)
	if err != nil {
		return q, apperrors.NewValidationError("locationFieldsOnly: " + err.Error())
	}
	basicMap, err := utils.ParseBool(values.Get("basicMapOnly"), false)
	if err != nil {
		return q, apperrors.NewValidationError("basicMapOnly: " + err.Error())
	}
	switch {
	case locationOnly:
		q.Projection = search.ProjectionLocationOnly
	case basicMap:
		q.Projection = search.ProjectionBasicMap
	default:
		q.Projection = search.ProjectionFull
	}

	return q, nil
}

func parseDocumentFilters(values url.Values, f *search.FilterParameters) error {
	flags := []struct{ param, document string }{
		{"referralRequired", search.DocumentReferralLetter},
		{"photoIdRequired", search.DocumentPhotoID},
	}
	for _, flag := range flags {
		raw := values.Get(flag.param)
		if raw == "" {
			continue
		}
		required, err := utils.ParseBool(raw, false)
		if err != nil {
			return apperrors.NewValidationError(flag.param + ": " + err.Error())
		}
		if f.Documents == nil {
			f.Documents = make(map[string]bool)
		}
		f.Documents[flag.document] = required
	}
	return nil
}

func parseEligibilityFilters(values url.Values, f *search.FilterParameters) error {
	if raw := values.Get("membership"); raw != "" {
		member, err := utils.ParseBool(raw, false)
		if err != nil {
			return apperrors.NewValidationError("membership: " + err.Error())
		}
		setEligibility(f, search.EligibilityMembership, member)
	}
	if gender := strings.TrimSpace(values.Get("gender")); gender != "" {
		setEligibility(f, search.EligibilityGender, gender)
	}
	return nil
}

func setEligibility(f *search.FilterParameters, name string, value interface{}) {
	if f.Eligibility == nil {
		f.Eligibility = make(map[string]interface{})
	}
	f.Eligibility[name] = value
}

// arrayParam returns the values of an array parameter, accepting both the
// name and name[] spellings.
func arrayParam(values url.Values, name string) []string {
	var out []string
	out = append(out, values[name]...)
	out = append(out, values[name+"[]"]...)
	return out
}

// parseResultLimit reads minResults or maxResults. Absent is zero, which the
// search treats as "no minimum" or "the default maximum"; an explicit value
// must be positive.
func parseResultLimit(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := utils.ParseInt(raw, 0)
	if err != nil {
		return 0, apperrors.NewValidationError(name + ": " + err.Error())
	}
	if n <= 0 {
		return 0, apperrors.NewValidationErrorf("%s must be a positive integer", name)
	}
	return n, nil
}
