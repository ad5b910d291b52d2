package search

import (
	"sort"
	"strings"

	"github.com/streetlives/streetlives-api/pkg/utils"
)

// Compile turns filter parameters into a plan without geometry or limit.
// taxonomyIDs is the hierarchy expansion of f.TaxonomyIDs; when taxonomies
// were requested but none of them exist the plan is unsatisfiable.
func Compile(f FilterParameters, taxonomyIDs []string) QueryPlan {
	var plan QueryPlan

	if term := utils.NormalizeSearchTerm(f.SearchString); term != "" {
		plan.Row = append(plan.Row, TextMatch{Term: term})
	}
	if name := strings.TrimSpace(f.OrganizationName); name != "" {
		plan.Row = append(plan.Row, OrganizationNameMatch{Term: name})
	}
	if len(f.TaxonomyIDs) > 0 {
		if len(taxonomyIDs) == 0 {
			plan.Unsatisfiable = true
		} else {
			ids := append([]string(nil), taxonomyIDs...)
			sort.Strings(ids)
			plan.Row = append(plan.Row, TaxonomyIn{IDs: ids})
		}
	}

	occasion := strings.TrimSpace(f.Occasion)
	switch {
	case f.OpenAt != nil:
		local := utils.InReferenceZone(*f.OpenAt)
		plan.Row = append(plan.Row, OpenAt{
			Weekday:   utils.WeekdayNumber(local),
			TimeOfDay: utils.FormatTimeOfDay(local),
			Occasion:  occasion,
		})
	case occasion != "":
		plan.Row = append(plan.Row, HasOccasion{Occasion: occasion})
	}

	if f.ServesZipcode != "" {
		plan.Row = append(plan.Row, ServesZipcode{Zipcode: f.ServesZipcode})
	}
	if len(f.Zipcodes) > 0 {
		plan.Row = append(plan.Row, AddressIn{Zipcodes: append([]string(nil), f.Zipcodes...)})
	}

	for _, name := range sortedKeys(f.Eligibility) {
		plan.Group = append(plan.Group, EligibilityMatch{Parameter: name, Value: f.Eligibility[name]})
	}
	for _, doc := range sortedKeys(f.Documents) {
		plan.Group = append(plan.Group, DocumentRequirement{Document: doc, Required: f.Documents[doc]})
	}
	for _, name := range sortedKeys(f.TaxonomySpecificAttributes) {
		plan.Group = append(plan.Group, AttributeMatch{Name: name, Value: f.TaxonomySpecificAttributes[name]})
	}

	return plan
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
