package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

// snapshotTx is used for multi-query reads that must see one consistent state
var snapshotTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// LocationAdapter implements the LocationRepository interface
type LocationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewLocationAdapter creates a new location adapter
func NewLocationAdapter(client *postgres.Client) repositories.LocationRepository {
	return &LocationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// FindIDs resolves a plan to unique, ordered location IDs
func (a *LocationAdapter) FindIDs(ctx context.Context, plan search.QueryPlan) ([]string, error) {
	ds, err := buildLocationIDsQuery(plan)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to compile location search", err)
	}

	ids := make([]string, 0)
	err = queryRows(ctx, a.client.DB(), ds, "location IDs", func(row scanner) error {
		var id string
		if plan.Origin != nil {
			var distance float64
			if err := row.Scan(&id, &distance); err != nil {
				return err
			}
		} else if err := row.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchForSearch loads the locations and the associations of the projection
// in one read-only snapshot
func (a *LocationAdapter) FetchForSearch(ctx context.Context, ids []string, projection search.Projection, occasion string) (*repositories.SearchFetch, error) {
	result := &repositories.SearchFetch{Locations: make([]*entities.Location, 0, len(ids))}
	if len(ids) == 0 {
		return result, nil
	}

	err := a.client.WithTx(ctx, snapshotTx, func(tx *sql.Tx) error {
		byID, err := loadLocations(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if loc, ok := byID[id]; ok {
				result.Locations = append(result.Locations, loc)
			}
		}
		found := locationIDs(result.Locations)

		servicesByLocation := map[string][]*entities.Service{}
		if projection != search.ProjectionLocationOnly {
			if err := a.attachSummary(ctx, tx, result.Locations, projection == search.ProjectionFull); err != nil {
				return err
			}
			for _, loc := range result.Locations {
				servicesByLocation[loc.ID] = loc.Services
			}
		}

		if occasion == "" {
			return nil
		}
		if projection == search.ProjectionLocationOnly {
			servicesByLocation, _, err = loadServicesAt(ctx, tx, found)
			if err != nil {
				return err
			}
		}
		result.Occasions, err = loadOccasionStatus(ctx, tx, found, servicesByLocation, occasion)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to fetch search results")
	}
	return result, nil
}

// attachSummary adds organization, services with taxonomies and addresses;
// with full also required documents and phones.
func (a *LocationAdapter) attachSummary(ctx context.Context, q queryer, locations []*entities.Location, full bool) error {
	ids := locationIDs(locations)

	orgs, err := loadOrganizations(ctx, q, organizationIDs(locations))
	if err != nil {
		return err
	}
	servicesByLocation, servicesByID, err := loadServicesAt(ctx, q, ids)
	if err != nil {
		return err
	}
	serviceIDs := mapKeys(servicesByID)
	taxonomies, err := loadServiceTaxonomies(ctx, q, serviceIDs)
	if err != nil {
		return err
	}
	addresses, err := loadAddresses(ctx, q, ids)
	if err != nil {
		return err
	}

	var documents map[string][]*entities.RequiredDocument
	var phones map[string][]*entities.Phone
	if full {
		if documents, err = loadRequiredDocuments(ctx, q, serviceIDs); err != nil {
			return err
		}
		if phones, err = loadPhones(ctx, q, ids); err != nil {
			return err
		}
	}

	for _, s := range servicesByID {
		s.Taxonomies = taxonomies[s.ID]
		s.RequiredDocuments = documents[s.ID]
	}
	for _, loc := range locations {
		loc.Organization = orgs[loc.OrganizationID]
		loc.Services = servicesByLocation[loc.ID]
		loc.PhysicalAddresses = addresses[loc.ID]
		loc.Phones = phones[loc.ID]
	}
	return nil
}

func loadOccasionStatus(
	ctx context.Context,
	q queryer,
	ids []string,
	servicesByLocation map[string][]*entities.Service,
	occasion string,
) (map[string]*repositories.OccasionStatus, error) {
	counts, err := countEventInfos(ctx, q, ids, occasion)
	if err != nil {
		return nil, err
	}

	var serviceIDs []string
	seen := map[string]struct{}{}
	for _, services := range servicesByLocation {
		for _, s := range services {
			if _, ok := seen[s.ID]; !ok {
				seen[s.ID] = struct{}{}
				serviceIDs = append(serviceIDs, s.ID)
			}
		}
	}
	sort.Strings(serviceIDs)
	closures, err := loadOccasionClosures(ctx, q, serviceIDs, occasion)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*repositories.OccasionStatus, len(ids))
	for _, id := range ids {
		status := &repositories.OccasionStatus{
			EventInfoCount:  counts[id],
			ServiceClosures: map[string][]bool{},
		}
		for _, s := range servicesByLocation[id] {
			flags := closures[s.ID]
			if flags == nil {
				flags = []bool{}
			}
			status.ServiceClosures[s.ID] = flags
		}
		out[id] = status
	}
	return out, nil
}

// GetByID loads a location with its full detail, hidden or not
func (a *LocationAdapter) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	var loc *entities.Location
	err := a.client.WithTx(ctx, snapshotTx, func(tx *sql.Tx) error {
		byID, err := loadLocations(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		var ok bool
		if loc, ok = byID[id]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("location with id %s not found", id))
		}
		return attachDetail(ctx, tx, loc)
	})
	if err != nil {
		return nil, asAppError(err, "failed to get location")
	}
	return loc, nil
}

func attachDetail(ctx context.Context, q queryer, loc *entities.Location) error {
	ids := []string{loc.ID}

	orgs, err := loadOrganizations(ctx, q, []string{loc.OrganizationID})
	if err != nil {
		return err
	}
	loc.Organization = orgs[loc.OrganizationID]

	servicesByLocation, servicesByID, err := loadServicesAt(ctx, q, ids)
	if err != nil {
		return err
	}
	loc.Services = servicesByLocation[loc.ID]
	if err := attachServiceDetail(ctx, q, servicesByID); err != nil {
		return err
	}

	phones, err := loadPhones(ctx, q, ids)
	if err != nil {
		return err
	}
	addresses, err := loadAddresses(ctx, q, ids)
	if err != nil {
		return err
	}
	regular, err := loadRegularSchedules(ctx, q, "location_id", ids)
	if err != nil {
		return err
	}
	holiday, err := loadHolidaySchedules(ctx, q, "location_id", ids)
	if err != nil {
		return err
	}
	events, err := loadEventRelatedInfos(ctx, q, "location_id", ids)
	if err != nil {
		return err
	}
	languages, err := loadLanguages(ctx, q, "location_languages", "location_id", ids)
	if err != nil {
		return err
	}
	accessibility, err := loadAccessibility(ctx, q, ids)
	if err != nil {
		return err
	}
	comments, err := loadVisibleComments(ctx, q, loc.ID)
	if err != nil {
		return err
	}

	loc.Phones = phones[loc.ID]
	loc.PhysicalAddresses = addresses[loc.ID]
	loc.RegularSchedules = regular[loc.ID]
	loc.HolidaySchedules = holiday[loc.ID]
	loc.EventRelatedInfos = events[loc.ID]
	loc.Languages = languages[loc.ID]
	loc.AccessibilityForDisabilities = accessibility[loc.ID]
	loc.Comments = comments
	return nil
}

// attachServiceDetail loads every association of the given services
func attachServiceDetail(ctx context.Context, q queryer, services map[string]*entities.Service) error {
	ids := mapKeys(services)
	if len(ids) == 0 {
		return nil
	}

	taxonomies, err := loadServiceTaxonomies(ctx, q, ids)
	if err != nil {
		return err
	}
	documents, err := loadRequiredDocuments(ctx, q, ids)
	if err != nil {
		return err
	}
	documentsInfo, err := loadDocumentsInfos(ctx, q, ids)
	if err != nil {
		return err
	}
	regular, err := loadRegularSchedules(ctx, q, "service_id", ids)
	if err != nil {
		return err
	}
	holiday, err := loadHolidaySchedules(ctx, q, "service_id", ids)
	if err != nil {
		return err
	}
	eligibilities, err := loadEligibilities(ctx, q, ids)
	if err != nil {
		return err
	}
	areas, err := loadServiceAreas(ctx, q, ids)
	if err != nil {
		return err
	}
	languages, err := loadLanguages(ctx, q, "service_languages", "service_id", ids)
	if err != nil {
		return err
	}
	events, err := loadEventRelatedInfos(ctx, q, "service_id", ids)
	if err != nil {
		return err
	}
	attributes, err := loadServiceAttributes(ctx, q, ids)
	if err != nil {
		return err
	}

	for id, s := range services {
		s.Taxonomies = taxonomies[id]
		s.RequiredDocuments = documents[id]
		s.DocumentsInfo = documentsInfo[id]
		s.RegularSchedules = regular[id]
		s.HolidaySchedules = holiday[id]
		s.Eligibilities = eligibilities[id]
		s.ServiceAreas = areas[id]
		s.Languages = languages[id]
		s.EventRelatedInfos = events[id]
		s.TaxonomySpecificAttributes = attributes[id]
	}
	return nil
}

// Exists reports whether a location exists
func (a *LocationAdapter) Exists(ctx context.Context, id string) (bool, error) {
	query, args, err := a.db.From("locations").Select(goqu.L("1")).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var one int
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewInternalError("failed to check location", err)
	}
	return true, nil
}

// OrganizationID returns the owning organization of a location
func (a *LocationAdapter) OrganizationID(ctx context.Context, id string) (string, error) {
	query, args, err := a.db.From("locations").Select("organization_id").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build query", err)
	}

	var organizationID string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&organizationID)
	if err == sql.ErrNoRows {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("location with id %s not found", id))
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to get location", err)
	}
	return organizationID, nil
}

// ListByOrganization lists an organization's visible locations with their addresses
func (a *LocationAdapter) ListByOrganization(ctx context.Context, organizationID string) ([]*entities.Location, error) {
	ds := a.db.From(goqu.T("locations").As("l")).
		Select(locationColumns...).
		Where(
			goqu.I("l.organization_id").Eq(organizationID),
			goqu.I("l.hidden_from_search").IsNotTrue(),
		).
		Order(goqu.I("l.name").Asc(), goqu.I("l.id").Asc())

	locations := make([]*entities.Location, 0)
	err := queryRows(ctx, a.client.DB(), ds, "locations", func(row scanner) error {
		loc, err := scanLocation(row)
		if err != nil {
			return err
		}
		locations = append(locations, loc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	addresses, err := loadAddresses(ctx, a.client.DB(), locationIDs(locations))
	if err != nil {
		return nil, err
	}
	for _, loc := range locations {
		loc.PhysicalAddresses = addresses[loc.ID]
	}
	return locations, nil
}

// Create creates a location and its address in one transaction
func (a *LocationAdapter) Create(ctx context.Context, in entities.NewLocation) (*entities.Location, error) {
	now := nowUTC()
	position := in.Position
	loc := &entities.Location{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		Description:    in.Description,
		AdditionalInfo: in.AdditionalInfo,
		Position:       &position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	address := in.Address
	address.ID = uuid.NewString()
	address.LocationID = loc.ID

	err := a.client.WithTx(ctx, nil, func(tx *sql.Tx) error {
		if _, err := execDataset(ctx, tx, dialect.Insert("locations").Rows(goqu.Record{
			"id":                 loc.ID,
			"organization_id":    loc.OrganizationID,
			"name":               loc.Name,
			"description":        loc.Description,
			"additional_info":    loc.AdditionalInfo,
			"latitude":           position.Latitude,
			"longitude":          position.Longitude,
			"hidden_from_search": false,
			"created_at":         loc.CreatedAt,
			"updated_at":         loc.UpdatedAt,
		}), "create location"); err != nil {
			return err
		}
		_, err := execDataset(ctx, tx, dialect.Insert("physical_addresses").Rows(addressRecord(&address)), "create address")
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to create location")
	}

	loc.PhysicalAddresses = []*entities.PhysicalAddress{&address}
	log.Debug().Str("location_id", loc.ID).Msg("Location created")
	return loc, nil
}

func addressRecord(a *entities.PhysicalAddress) goqu.Record {
	return goqu.Record{
		"id":             a.ID,
		"location_id":    a.LocationID,
		"address_1":      a.Address1,
		"city":           a.City,
		"region":         a.Region,
		"state_province": a.StateProvince,
		"postal_code":    a.PostalCode,
		"country":        a.Country,
	}
}

// Update applies a partial update to the location, its address and its event
// related info in one transaction
func (a *LocationAdapter) Update(ctx context.Context, id string, update entities.LocationUpdate) error {
	record := goqu.Record{"updated_at": nowUTC()}
	if update.Name != nil {
		record["name"] = *update.Name
	}
	if update.Description != nil {
		record["description"] = *update.Description
	}
	if update.AdditionalInfo != nil {
		record["additional_info"] = *update.AdditionalInfo
	}
	if update.Position != nil {
		record["latitude"] = update.Position.Latitude
		record["longitude"] = update.Position.Longitude
	}
	if update.OrganizationID != nil {
		record["organization_id"] = *update.OrganizationID
	}

	err := a.client.WithTx(ctx, nil, func(tx *sql.Tx) error {
		result, err := execDataset(ctx, tx, dialect.Update("locations").Set(record).Where(goqu.Ex{"id": id}), "update location")
		if err != nil {
			return err
		}
		if err := requireAffected(result, "location", id); err != nil {
			return err
		}
		if update.Address != nil {
			if err := updateAddress(ctx, tx, id, update.Address); err != nil {
				return err
			}
		}
		if info := update.EventRelatedInfo; info != nil {
			return upsertEventRelatedInfo(ctx, tx, "location_id", id, info)
		}
		return nil
	})
	if err != nil {
		return asAppError(err, "failed to update location")
	}
	return nil
}

func updateAddress(ctx context.Context, tx queryer, locationID string, u *entities.AddressUpdate) error {
	record := goqu.Record{}
	set := func(column string, v *string) {
		if v != nil {
			record[column] = *v
		}
	}
	set("address_1", u.Street)
	set("city", u.City)
	set("region", u.Region)
	set("state_province", u.State)
	set("postal_code", u.PostalCode)
	set("country", u.Country)
	if len(record) == 0 {
		return nil
	}

	result, err := execDataset(ctx, tx, dialect.Update("physical_addresses").Set(record).Where(goqu.Ex{"location_id": locationID}), "update address")
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	} else if n > 0 {
		return nil
	}

	if u.Street == nil || u.City == nil || u.State == nil || u.PostalCode == nil || u.Country == nil {
		return apperrors.NewValidationError("location has no address; street, city, state, postalCode and country are required")
	}
	address := &entities.PhysicalAddress{
		ID:            uuid.NewString(),
		LocationID:    locationID,
		Address1:      *u.Street,
		City:          *u.City,
		Region:        u.Region,
		StateProvince: *u.State,
		PostalCode:    *u.PostalCode,
		Country:       *u.Country,
	}
	_, err = execDataset(ctx, tx, dialect.Insert("physical_addresses").Rows(addressRecord(address)), "create address")
	return err
}

// upsertEventRelatedInfo updates the owner's info for the event, creating it if missing
func upsertEventRelatedInfo(ctx context.Context, tx queryer, ownerColumn, ownerID string, info *entities.EventRelatedInfoInput) error {
	result, err := execDataset(ctx, tx, dialect.Update("event_related_infos").
		Set(goqu.Record{"information": info.Information}).
		Where(goqu.Ex{ownerColumn: ownerID, "event": info.Event}), "update event related info")
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	} else if n > 0 {
		return nil
	}
	_, err = execDataset(ctx, tx, dialect.Insert("event_related_infos").Rows(goqu.Record{
		"id":          uuid.NewString(),
		"event":       info.Event,
		"information": info.Information,
		ownerColumn:   ownerID,
	}), "create event related info")
	return err
}

// asAppError keeps application errors and wraps anything else, such as a
// failed commit, as internal
func asAppError(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewInternalError(message, err)
}

func requireAffected(result sql.Result, what, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s with id %s not found", what, id))
	}
	return nil
}

func locationIDs(locations []*entities.Location) []string {
	ids := make([]string, len(locations))
	for i, loc := range locations {
		ids[i] = loc.ID
	}
	return ids
}

func organizationIDs(locations []*entities.Location) []string {
	seen := make(map[string]struct{}, len(locations))
	ids := make([]string, 0, len(locations))
	for _, loc := range locations {
		if _, ok := seen[loc.OrganizationID]; !ok {
			seen[loc.OrganizationID] = struct{}{}
			ids = append(ids, loc.OrganizationID)
		}
	}
	return ids
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
