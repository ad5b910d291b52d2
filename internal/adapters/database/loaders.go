package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

// queryer is implemented by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// queryRows runs ds and calls scan for every row
func queryRows(ctx context.Context, q queryer, ds *goqu.SelectDataset, what string, scan func(scanner) error) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build "+what+" query", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load "+what, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return apperrors.NewInternalError("failed to scan "+what, err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("error iterating "+what, err)
	}
	return nil
}

func execDataset(ctx context.Context, q queryer, ds interface {
	ToSQL() (string, []interface{}, error)
}, what string) (sql.Result, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build "+what+" query", err)
	}
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to "+what, err)
	}
	return result, nil
}

func rawJSON(b []byte) json.RawMessage {
	if b == nil {
		return nil
	}
	return json.RawMessage(b)
}

// jsonParam passes raw JSON to a jsonb column, NULL when empty.
func jsonParam(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

var locationColumns = []interface{}{
	goqu.I("l.id"), goqu.I("l.organization_id"), goqu.I("l.name"), goqu.I("l.description"),
	goqu.I("l.additional_info"), goqu.I("l.latitude"), goqu.I("l.longitude"),
	goqu.I("l.hidden_from_search"), goqu.I("l.created_at"), goqu.I("l.updated_at"),
}

func scanLocation(row scanner) (*entities.Location, error) {
	loc := &entities.Location{}
	var lat, lon sql.NullFloat64
	var hidden sql.NullBool
	err := row.Scan(
		&loc.ID, &loc.OrganizationID, &loc.Name, &loc.Description,
		&loc.AdditionalInfo, &lat, &lon,
		&hidden, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		loc.Position = &entities.Position{Longitude: lon.Float64, Latitude: lat.Float64}
	}
	loc.HiddenFromSearch = hidden.Bool
	return loc, nil
}

func loadLocations(ctx context.Context, q queryer, ids []string) (map[string]*entities.Location, error) {
	out := make(map[string]*entities.Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ds := dialect.From(goqu.T("locations").As("l")).
		Select(locationColumns...).
		Where(goqu.I("l.id").In(ids))
	err := queryRows(ctx, q, ds, "locations", func(row scanner) error {
		loc, err := scanLocation(row)
		if err != nil {
			return err
		}
		out[loc.ID] = loc
		return nil
	})
	return out, err
}

func loadOrganizations(ctx context.Context, q queryer, ids []string) (map[string]*entities.Organization, error) {
	out := make(map[string]*entities.Organization, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ds := dialect.From("organizations").
		Select("id", "name", "description", "url", "created_at", "updated_at").
		Where(goqu.Ex{"id": ids})
	err := queryRows(ctx, q, ds, "organizations", func(row scanner) error {
		org, err := scanOrganization(row)
		if err != nil {
			return err
		}
		out[org.ID] = org
		return nil
	})
	return out, err
}

func scanOrganization(row scanner) (*entities.Organization, error) {
	org := &entities.Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Description, &org.URL, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

var serviceColumns = []interface{}{
	goqu.I("s.id"), goqu.I("s.organization_id"), goqu.I("s.name"), goqu.I("s.description"),
	goqu.I("s.url"), goqu.I("s.fees"), goqu.I("s.additional_info"), goqu.I("s.ages_served"),
	goqu.I("s.who_does_it_serve"), goqu.I("s.created_at"), goqu.I("s.updated_at"),
}

func scanService(row scanner, extra ...interface{}) (*entities.Service, error) {
	s := &entities.Service{}
	var agesServed, whoDoesItServe []byte
	dest := append(extra,
		&s.ID, &s.OrganizationID, &s.Name, &s.Description,
		&s.URL, &s.Fees, &s.AdditionalInfo, &agesServed,
		&whoDoesItServe, &s.CreatedAt, &s.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.AgesServed = rawJSON(agesServed)
	s.WhoDoesItServe = rawJSON(whoDoesItServe)
	return s, nil
}

// loadServicesAt returns the services of each location. A service offered at
// several of the locations is shared between them.
func loadServicesAt(ctx context.Context, q queryer, locationIDs []string) (map[string][]*entities.Service, map[string]*entities.Service, error) {
	byLocation := make(map[string][]*entities.Service)
	byID := make(map[string]*entities.Service)
	if len(locationIDs) == 0 {
		return byLocation, byID, nil
	}
	ds := dialect.From(goqu.T("service_at_location").As("sal")).
		Join(goqu.T("services").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("sal.service_id")))).
		Select(append([]interface{}{goqu.I("sal.location_id")}, serviceColumns...)...).
		Where(goqu.I("sal.location_id").In(locationIDs)).
		Order(goqu.I("s.name").Asc(), goqu.I("s.id").Asc())
	err := queryRows(ctx, q, ds, "services", func(row scanner) error {
		var locationID string
		s, err := scanService(row, &locationID)
		if err != nil {
			return err
		}
		if existing, ok := byID[s.ID]; ok {
			s = existing
		} else {
			byID[s.ID] = s
		}
		byLocation[locationID] = append(byLocation[locationID], s)
		return nil
	})
	return byLocation, byID, err
}

func loadServiceTaxonomies(ctx context.Context, q queryer, serviceIDs []string) (map[string][]*entities.Taxonomy, error) {
	out := make(map[string][]*entities.Taxonomy)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From(goqu.T("service_taxonomy").As("st")).
		Join(goqu.T("taxonomies").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("st.taxonomy_id")))).
		Select(goqu.I("st.service_id"), goqu.I("t.id"), goqu.I("t.name"), goqu.I("t.parent_id"), goqu.I("t.parent_name")).
		Where(goqu.I("st.service_id").In(serviceIDs)).
		Order(goqu.I("t.name").Asc())
	err := queryRows(ctx, q, ds, "service taxonomies", func(row scanner) error {
		var serviceID string
		t := &entities.Taxonomy{}
		if err := row.Scan(&serviceID, &t.ID, &t.Name, &t.ParentID, &t.ParentName); err != nil {
			return err
		}
		out[serviceID] = append(out[serviceID], t)
		return nil
	})
	return out, err
}

func loadRequiredDocuments(ctx context.Context, q queryer, serviceIDs []string) (map[string][]*entities.RequiredDocument, error) {
	out := make(map[string][]*entities.RequiredDocument)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("required_documents").
		Select("id", "service_id", "document").
		Where(goqu.Ex{"service_id": serviceIDs}).
		Order(goqu.I("document").Asc())
	err := queryRows(ctx, q, ds, "required documents", func(row scanner) error {
		d := &entities.RequiredDocument{}
		if err := row.Scan(&d.ID, &d.ServiceID, &d.Document); err != nil {
			return err
		}
		out[d.ServiceID] = append(out[d.ServiceID], d)
		return nil
	})
	return out, err
}

func loadDocumentsInfos(ctx context.Context, q queryer, serviceIDs []string) (map[string]*entities.DocumentsInfo, error) {
	out := make(map[string]*entities.DocumentsInfo)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("documents_infos").
		Select("id", "service_id", "recertification_time", "grace_period", "additional_info").
		Where(goqu.Ex{"service_id": serviceIDs})
	err := queryRows(ctx, q, ds, "documents info", func(row scanner) error {
		d := &entities.DocumentsInfo{}
		if err := row.Scan(&d.ID, &d.ServiceID, &d.RecertificationTime, &d.GracePeriod, &d.AdditionalInfo); err != nil {
			return err
		}
		out[d.ServiceID] = d
		return nil
	})
	return out, err
}

func loadPhones(ctx context.Context, q queryer, locationIDs []string) (map[string][]*entities.Phone, error) {
	out := make(map[string][]*entities.Phone)
	if len(locationIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("phones").
		Select("id", "number", "extension", "type", "language", "description", "location_id", "service_id", "organization_id").
		Where(goqu.Ex{"location_id": locationIDs}).
		Order(goqu.I("number").Asc())
	err := queryRows(ctx, q, ds, "phones", func(row scanner) error {
		p := &entities.Phone{}
		err := row.Scan(&p.ID, &p.Number, &p.Extension, &p.Type, &p.Language, &p.Description,
			&p.LocationID, &p.ServiceID, &p.OrganizationID)
		if err != nil {
			return err
		}
		if p.LocationID != nil {
			out[*p.LocationID] = append(out[*p.LocationID], p)
		}
		return nil
	})
	return out, err
}

func loadAddresses(ctx context.Context, q queryer, locationIDs []string) (map[string][]*entities.PhysicalAddress, error) {
	out := make(map[string][]*entities.PhysicalAddress)
	if len(locationIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("physical_addresses").
		Select("id", "location_id", "address_1", "city", "region", "state_province", "postal_code", "country").
		Where(goqu.Ex{"location_id": locationIDs}).
		Order(goqu.I("id").Asc())
	err := queryRows(ctx, q, ds, "physical addresses", func(row scanner) error {
		a := &entities.PhysicalAddress{}
		err := row.Scan(&a.ID, &a.LocationID, &a.Address1, &a.City, &a.Region, &a.StateProvince, &a.PostalCode, &a.Country)
		if err != nil {
			return err
		}
		out[a.LocationID] = append(out[a.LocationID], a)
		return nil
	})
	return out, err
}

// loadRegularSchedules groups schedules by ownerColumn, either location_id or service_id
func loadRegularSchedules(ctx context.Context, q queryer, ownerColumn string, ids []string) (map[string][]*entities.RegularSchedule, error) {
	out := make(map[string][]*entities.RegularSchedule)
	if len(ids) == 0 {
		return out, nil
	}
	ds := dialect.From("regular_schedules").
		Select(goqu.C(ownerColumn), goqu.C("id"), goqu.C("weekday"),
			goqu.L("opens_at::text"), goqu.L("closes_at::text"), goqu.C("location_id"), goqu.C("service_id")).
		Where(goqu.C(ownerColumn).In(ids)).
		Order(goqu.C("weekday").Asc(), goqu.C("opens_at").Asc())
	err := queryRows(ctx, q, ds, "regular schedules", func(row scanner) error {
		var owner string
		s := &entities.RegularSchedule{}
		if err := row.Scan(&owner, &s.ID, &s.Weekday, &s.OpensAt, &s.ClosesAt, &s.LocationID, &s.ServiceID); err != nil {
			return err
		}
		out[owner] = append(out[owner], s)
		return nil
	})
	return out, err
}

// loadHolidaySchedules groups schedules by ownerColumn, either location_id or service_id
func loadHolidaySchedules(ctx context.Context, q queryer, ownerColumn string, ids []string) (map[string][]*entities.HolidaySchedule, error) {
	out := make(map[string][]*entities.HolidaySchedule)
	if len(ids) == 0 {
		return out, nil
	}
	ds := dialect.From("holiday_schedules").
		Select(goqu.C(ownerColumn), goqu.C("id"), goqu.C("closed"),
			goqu.L("opens_at::text"), goqu.L("closes_at::text"),
			goqu.L("start_date::text"), goqu.L("end_date::text"),
			goqu.C("weekday"), goqu.C("occasion"), goqu.C("location_id"), goqu.C("service_id")).
		Where(goqu.C(ownerColumn).In(ids)).
		Order(goqu.C("occasion").Asc(), goqu.C("weekday").Asc(), goqu.C("start_date").Asc())
	err := queryRows(ctx, q, ds, "holiday schedules", func(row scanner) error {
		var owner string
		s := &entities.HolidaySchedule{}
		err := row.Scan(&owner, &s.ID, &s.Closed, &s.OpensAt, &s.ClosesAt, &s.StartDate, &s.EndDate,
			&s.Weekday, &s.Occasion, &s.LocationID, &s.ServiceID)
		if err != nil {
			return err
		}
		out[owner] = append(out[owner], s)
		return nil
	})
	return out, err
}

// loadEventRelatedInfos groups infos by ownerColumn, either location_id or service_id
func loadEventRelatedInfos(ctx context.Context, q queryer, ownerColumn string, ids []string) (map[string][]*entities.EventRelatedInfo, error) {
	out := make(map[string][]*entities.EventRelatedInfo)
	if len(ids) == 0 {
		return out, nil
	}
	ds := dialect.From("event_related_infos").
		Select(goqu.C(ownerColumn), goqu.C("id"), goqu.C("event"), goqu.L("COALESCE(information, '')"),
			goqu.C("location_id"), goqu.C("service_id")).
		Where(goqu.C(ownerColumn).In(ids)).
		Order(goqu.C("event").Asc())
	err := queryRows(ctx, q, ds, "event related info", func(row scanner) error {
		var owner string
		e := &entities.EventRelatedInfo{}
		if err := row.Scan(&owner, &e.ID, &e.Event, &e.Information, &e.LocationID, &e.ServiceID); err != nil {
			return err
		}
		out[owner] = append(out[owner], e)
		return nil
	})
	return out, err
}

func loadEligibilities(ctx context.Context, q queryer, serviceIDs []string) (map[string][]*entities.Eligibility, error) {
	out := make(map[string][]*entities.Eligibility)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From(goqu.T("eligibility").As("e")).
		Join(goqu.T("eligibility_parameters").As("ep"), goqu.On(goqu.I("ep.id").Eq(goqu.I("e.parameter_id")))).
		Select(goqu.I("e.id"), goqu.I("e.service_id"), goqu.I("e.parameter_id"), goqu.I("e.eligible_values"),
			goqu.I("e.description"), goqu.I("ep.name")).
		Where(goqu.I("e.service_id").In(serviceIDs)).
		Order(goqu.I("ep.name").Asc())
	err := queryRows(ctx, q, ds, "eligibility", func(row scanner) error {
		e := &entities.Eligibility{EligibilityParameter: &entities.EligibilityParameter{}}
		var values []byte
		if err := row.Scan(&e.ID, &e.ServiceID, &e.ParameterID, &values, &e.Description, &e.EligibilityParameter.Name); err != nil {
			return err
		}
		e.EligibleValues = rawJSON(values)
		e.EligibilityParameter.ID = e.ParameterID
		out[e.ServiceID] = append(out[e.ServiceID], e)
		return nil
	})
	return out, err
}

func loadServiceAreas(ctx context.Context, q queryer, serviceIDs []string) (map[string][]*entities.ServiceArea, error) {
	out := make(map[string][]*entities.ServiceArea)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("service_areas").
		Select("id", "service_id", "postal_codes", "description").
		Where(goqu.Ex{"service_id": serviceIDs})
	err := queryRows(ctx, q, ds, "service areas", func(row scanner) error {
		a := &entities.ServiceArea{}
		if err := row.Scan(&a.ID, &a.ServiceID, pq.Array(&a.PostalCodes), &a.Description); err != nil {
			return err
		}
		out[a.ServiceID] = append(out[a.ServiceID], a)
		return nil
	})
	return out, err
}

func loadServiceAttributes(ctx context.Context, q queryer, serviceIDs []string) (map[string][]*entities.ServiceTaxonomySpecificAttribute, error) {
	out := make(map[string][]*entities.ServiceTaxonomySpecificAttribute)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From(goqu.T("service_taxonomy_specific_attributes").As("sta")).
		Join(goqu.T("taxonomy_specific_attributes").As("tsa"), goqu.On(goqu.I("tsa.id").Eq(goqu.I("sta.attribute_id")))).
		Select(goqu.I("sta.id"), goqu.I("sta.service_id"), goqu.I("sta.attribute_id"), goqu.I("tsa.name"), goqu.I("sta.attribute_values")).
		Where(goqu.I("sta.service_id").In(serviceIDs)).
		Order(goqu.I("tsa.name").Asc())
	err := queryRows(ctx, q, ds, "taxonomy specific attributes", func(row scanner) error {
		a := &entities.ServiceTaxonomySpecificAttribute{}
		var values []byte
		if err := row.Scan(&a.ID, &a.ServiceID, &a.AttributeID, &a.Name, &values); err != nil {
			return err
		}
		if len(values) > 0 {
			if err := json.Unmarshal(values, &a.Values); err != nil {
				return err
			}
		}
		out[a.ServiceID] = append(out[a.ServiceID], a)
		return nil
	})
	return out, err
}

// loadLanguages reads a language join table keyed by ownerColumn
func loadLanguages(ctx context.Context, q queryer, joinTable, ownerColumn string, ids []string) (map[string][]*entities.Language, error) {
	out := make(map[string][]*entities.Language)
	if len(ids) == 0 {
		return out, nil
	}
	ds := dialect.From(goqu.T(joinTable).As("j")).
		Join(goqu.T("languages").As("lang"), goqu.On(goqu.I("lang.id").Eq(goqu.I("j.language_id")))).
		Select(goqu.I("j."+ownerColumn), goqu.I("lang.id"), goqu.I("lang.language"), goqu.I("lang.name")).
		Where(goqu.I("j."+ownerColumn).In(ids)).
		Order(goqu.I("lang.language").Asc())
	err := queryRows(ctx, q, ds, "languages", func(row scanner) error {
		var owner string
		l := &entities.Language{}
		if err := row.Scan(&owner, &l.ID, &l.Language, &l.Name); err != nil {
			return err
		}
		out[owner] = append(out[owner], l)
		return nil
	})
	return out, err
}

func loadAccessibility(ctx context.Context, q queryer, locationIDs []string) (map[string][]*entities.AccessibilityForDisabilities, error) {
	out := make(map[string][]*entities.AccessibilityForDisabilities)
	if len(locationIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("accessibility_for_disabilities").
		Select("id", "location_id", "accessibility", "details").
		Where(goqu.Ex{"location_id": locationIDs})
	err := queryRows(ctx, q, ds, "accessibility", func(row scanner) error {
		a := &entities.AccessibilityForDisabilities{}
		if err := row.Scan(&a.ID, &a.LocationID, &a.Accessibility, &a.Details); err != nil {
			return err
		}
		out[a.LocationID] = append(out[a.LocationID], a)
		return nil
	})
	return out, err
}

// countEventInfos counts the occasion's event related info rows per location
func countEventInfos(ctx context.Context, q queryer, locationIDs []string, occasion string) (map[string]int, error) {
	out := make(map[string]int)
	if len(locationIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("event_related_infos").
		Select(goqu.C("location_id"), goqu.COUNT("*")).
		Where(goqu.C("location_id").In(locationIDs), goqu.C("event").Eq(occasion)).
		GroupBy(goqu.C("location_id"))
	err := queryRows(ctx, q, ds, "event related info counts", func(row scanner) error {
		var locationID string
		var count int
		if err := row.Scan(&locationID, &count); err != nil {
			return err
		}
		out[locationID] = count
		return nil
	})
	return out, err
}

// loadOccasionClosures returns, per service, the closed flag of each of its
// holiday schedules for the occasion
func loadOccasionClosures(ctx context.Context, q queryer, serviceIDs []string, occasion string) (map[string][]bool, error) {
	out := make(map[string][]bool)
	if len(serviceIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("holiday_schedules").
		Select("service_id", "closed").
		Where(goqu.C("service_id").In(serviceIDs), goqu.C("occasion").Eq(occasion))
	err := queryRows(ctx, q, ds, "occasion schedules", func(row scanner) error {
		var serviceID string
		var closed bool
		if err := row.Scan(&serviceID, &closed); err != nil {
			return err
		}
		out[serviceID] = append(out[serviceID], closed)
		return nil
	})
	return out, err
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
