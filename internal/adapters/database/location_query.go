package database

import (
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/streetlives/streetlives-api/internal/domain/search"
	"github.com/streetlives/streetlives-api/pkg/geo"
	"github.com/streetlives/streetlives-api/pkg/utils"
)

var dialect = goqu.Dialect("postgres")

// locationJoins records which associations a plan needs joined.
type locationJoins struct {
	organization bool
	services     bool
	taxonomies   bool
	regular      bool
	holiday      bool
	serviceAreas bool
	addresses    bool
	eligibility  bool
	documents    bool
	attributes   bool
}

func joinsFor(plan search.QueryPlan) locationJoins {
	var j locationJoins
	for _, p := range plan.Predicates() {
		switch p := p.(type) {
		case search.TextMatch:
			j.organization, j.services, j.taxonomies = true, true, true
		case search.OrganizationNameMatch:
			j.organization = true
		case search.TaxonomyIn:
			j.services, j.taxonomies = true, true
		case search.OpenAt:
			j.services = true
			if p.Occasion != "" {
				j.holiday = true
			} else {
				j.regular = true
			}
		case search.HasOccasion:
			j.services, j.holiday = true, true
		case search.ServesZipcode:
			j.services, j.serviceAreas = true, true
		case search.AddressIn:
			j.addresses = true
		case search.EligibilityMatch:
			j.services, j.eligibility = true, true
		case search.DocumentRequirement:
			j.services, j.documents = true, true
		case search.AttributeMatch:
			j.services, j.attributes = true, true
		}
	}
	return j
}

// distanceExpression is the haversine great-circle distance in meters between
// origin and the location row, matching geo.DistanceMeters.
func distanceExpression(origin geo.Point) exp.LiteralExpression {
	return goqu.L(
		"? * 2 * asin(sqrt(least(1, power(sin(radians((l.latitude - ?) / 2)), 2)"+
			" + cos(radians(?)) * cos(radians(l.latitude)) * power(sin(radians((l.longitude - ?) / 2)), 2))))",
		geo.EarthRadiusMeters, origin.Latitude, origin.Latitude, origin.Longitude,
	)
}

// buildLocationIDsQuery translates a plan into a query returning unique
// location IDs. Row predicates become WHERE conditions over the joined rows;
// group predicates become HAVING conditions over GROUP BY location, service,
// so a location matches when one of its services satisfies all of them.
func buildLocationIDsQuery(plan search.QueryPlan) (*goqu.SelectDataset, error) {
	j := joinsFor(plan)

	ds := dialect.From(goqu.T("locations").As("l"))
	if j.organization {
		ds = ds.LeftJoin(goqu.T("organizations").As("o"), goqu.On(goqu.I("o.id").Eq(goqu.I("l.organization_id"))))
	}
	if j.services {
		ds = ds.
			LeftJoin(goqu.T("service_at_location").As("sal"), goqu.On(goqu.I("sal.location_id").Eq(goqu.I("l.id")))).
			LeftJoin(goqu.T("services").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("sal.service_id"))))
	}
	if j.taxonomies {
		ds = ds.
			LeftJoin(goqu.T("service_taxonomy").As("st"), goqu.On(goqu.I("st.service_id").Eq(goqu.I("s.id")))).
			LeftJoin(goqu.T("taxonomies").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("st.taxonomy_id"))))
	}
	if j.regular {
		ds = ds.LeftJoin(goqu.T("regular_schedules").As("rs"), goqu.On(goqu.I("rs.service_id").Eq(goqu.I("s.id"))))
	}
	if j.holiday {
		ds = ds.LeftJoin(goqu.T("holiday_schedules").As("hs"), goqu.On(goqu.I("hs.service_id").Eq(goqu.I("s.id"))))
	}
	if j.serviceAreas {
		ds = ds.LeftJoin(goqu.T("service_areas").As("sa"), goqu.On(goqu.I("sa.service_id").Eq(goqu.I("s.id"))))
	}
	if j.addresses {
		ds = ds.LeftJoin(goqu.T("physical_addresses").As("pa"), goqu.On(goqu.I("pa.location_id").Eq(goqu.I("l.id"))))
	}
	if j.eligibility {
		ds = ds.
			LeftJoin(goqu.T("eligibility").As("e"), goqu.On(goqu.I("e.service_id").Eq(goqu.I("s.id")))).
			LeftJoin(goqu.T("eligibility_parameters").As("ep"), goqu.On(goqu.I("ep.id").Eq(goqu.I("e.parameter_id"))))
	}
	if j.documents {
		ds = ds.LeftJoin(goqu.T("required_documents").As("rd"), goqu.On(goqu.I("rd.service_id").Eq(goqu.I("s.id"))))
	}
	if j.attributes {
		ds = ds.
			LeftJoin(goqu.T("service_taxonomy_specific_attributes").As("sta"), goqu.On(goqu.I("sta.service_id").Eq(goqu.I("s.id")))).
			LeftJoin(goqu.T("taxonomy_specific_attributes").As("tsa"), goqu.On(goqu.I("tsa.id").Eq(goqu.I("sta.attribute_id"))))
	}

	where := []exp.Expression{goqu.I("l.hidden_from_search").IsNotTrue()}
	for _, p := range plan.Row {
		cond, err := rowCondition(p)
		if err != nil {
			return nil, err
		}
		where = append(where, cond)
	}

	if plan.HasGroupConditions() {
		where = append(where, goqu.I("s.id").IsNotNull())
		having := make([]exp.Expression, 0, len(plan.Group))
		for _, p := range plan.Group {
			cond, err := groupCondition(p)
			if err != nil {
				return nil, err
			}
			having = append(having, cond)
		}
		ds = ds.GroupBy(goqu.I("l.id"), goqu.I("s.id")).Having(having...)
	}
	ds = ds.Where(where...)

	if plan.Origin != nil {
		ds = ds.Select(goqu.I("l.id"), distanceExpression(*plan.Origin).As("distance")).
			Distinct().
			Order(goqu.C("distance").Asc(), goqu.I("l.id").Asc())
	} else {
		ds = ds.Select(goqu.I("l.id")).
			Distinct().
			Order(goqu.I("l.id").Asc())
	}

	if plan.Limit > 0 {
		ds = ds.Limit(uint(plan.Limit))
	}
	return ds, nil
}

func rowCondition(p search.Predicate) (exp.Expression, error) {
	switch p := p.(type) {
	case search.TextMatch:
		pattern := utils.ContainsPattern(p.Term)
		return goqu.Or(
			goqu.I("o.name").ILike(pattern),
			goqu.I("o.description").ILike(pattern),
			goqu.I("s.name").ILike(pattern),
			goqu.I("s.description").ILike(pattern),
			goqu.I("t.name").ILike(pattern),
		), nil
	case search.OrganizationNameMatch:
		return goqu.I("o.name").ILike(utils.ContainsPattern(p.Term)), nil
	case search.TaxonomyIn:
		return goqu.I("t.id").In(p.IDs), nil
	case search.OpenAt:
		if p.Occasion == "" {
			return goqu.And(
				goqu.I("rs.weekday").Eq(p.Weekday),
				goqu.I("rs.opens_at").Lte(p.TimeOfDay),
				goqu.I("rs.closes_at").Gt(p.TimeOfDay),
			), nil
		}
		return goqu.And(
			goqu.I("hs.occasion").Eq(p.Occasion),
			goqu.I("hs.weekday").Eq(p.Weekday),
			goqu.I("hs.opens_at").Lte(p.TimeOfDay),
			goqu.I("hs.closes_at").Gt(p.TimeOfDay),
			goqu.I("hs.closed").IsNotTrue(),
		), nil
	case search.HasOccasion:
		return goqu.I("hs.occasion").Eq(p.Occasion), nil
	case search.ServesZipcode:
		return goqu.Or(
			goqu.I("sa.postal_codes").IsNull(),
			goqu.L("? = ANY(sa.postal_codes)", p.Zipcode),
		), nil
	case search.AddressIn:
		return goqu.I("pa.postal_code").In(p.Zipcodes), nil
	case search.WithinRadius:
		return distanceExpression(p.Origin).Lte(p.Radius), nil
	default:
		return nil, fmt.Errorf("unsupported row predicate %T", p)
	}
}

func groupCondition(p search.Predicate) (exp.Expression, error) {
	switch p := p.(type) {
	case search.EligibilityMatch:
		contains, err := eligibleValueCondition(p.Value)
		if err != nil {
			return nil, err
		}
		// No eligibility row for the parameter aggregates to NULL: unrestricted.
		return goqu.L("COALESCE(BOOL_AND(?) FILTER (WHERE ep.name = ?), TRUE)", contains, p.Parameter), nil
	case search.DocumentRequirement:
		has := goqu.L("COALESCE(BOOL_OR(lower(rd.document) = lower(?)), FALSE)", p.Document)
		if p.Required {
			return has, nil
		}
		return goqu.L("NOT ?", has), nil
	case search.AttributeMatch:
		values, err := jsonArray(p.Value)
		if err != nil {
			return nil, err
		}
		return goqu.L("COALESCE(BOOL_OR(sta.attribute_values @> ?::jsonb) FILTER (WHERE tsa.name = ?), FALSE)", values, p.Name), nil
	default:
		return nil, fmt.Errorf("unsupported group predicate %T", p)
	}
}

// eligibleValueCondition matches v inside eligible_values. Non-string values
// also match their string form, since imported data stores both.
func eligibleValueCondition(v interface{}) (exp.Expression, error) {
	values, err := jsonArray(v)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(string); ok {
		return goqu.L("e.eligible_values @> ?::jsonb", values), nil
	}
	asString, err := jsonArray(fmt.Sprint(v))
	if err != nil {
		return nil, err
	}
	return goqu.L("(e.eligible_values @> ?::jsonb OR e.eligible_values @> ?::jsonb)", values, asString), nil
}

func jsonArray(v interface{}) (string, error) {
	b, err := json.Marshal([]interface{}{v})
	if err != nil {
		return "", fmt.Errorf("failed to encode filter value: %w", err)
	}
	return string(b), nil
}
