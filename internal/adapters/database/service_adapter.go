package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
	"github.com/streetlives/streetlives-api/pkg/utils"
)

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new service adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the service, links it to its location and tags it with its
// taxonomy in one transaction
func (a *ServiceAdapter) Create(ctx context.Context, organizationID string, in entities.NewService) (*entities.Service, error) {
	now := nowUTC()
	service := &entities.Service{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           in.Name,
		Description:    in.Description,
		URL:            in.URL,
		AdditionalInfo: in.AdditionalInfo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := a.client.WithTx(ctx, nil, func(tx *sql.Tx) error {
		if _, err := execDataset(ctx, tx, dialect.Insert("services").Rows(goqu.Record{
			"id":              service.ID,
			"organization_id": service.OrganizationID,
			"name":            service.Name,
			"description":     service.Description,
			"url":             service.URL,
			"additional_info": service.AdditionalInfo,
			"created_at":      service.CreatedAt,
			"updated_at":      service.UpdatedAt,
		}), "create service"); err != nil {
			return err
		}
		if _, err := execDataset(ctx, tx, dialect.Insert("service_at_location").Rows(goqu.Record{
			"id":          uuid.NewString(),
			"service_id":  service.ID,
			"location_id": in.LocationID,
		}), "link service to location"); err != nil {
			return err
		}
		_, err := execDataset(ctx, tx, dialect.Insert("service_taxonomy").Rows(goqu.Record{
			"id":          uuid.NewString(),
			"service_id":  service.ID,
			"taxonomy_id": in.TaxonomyID,
		}), "tag service")
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to create service")
	}

	log.Debug().Str("service_id", service.ID).Str("location_id", in.LocationID).Msg("Service created")
	return service, nil
}

// GetByID retrieves a service with all of its associations
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	var service *entities.Service
	err := a.client.WithTx(ctx, snapshotTx, func(tx *sql.Tx) error {
		query, args, err := dialect.From(goqu.T("services").As("s")).
			Select(serviceColumns...).
			Where(goqu.I("s.id").Eq(id)).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build query", err)
		}
		service, err = scanService(tx.QueryRowContext(ctx, query, args...))
		if err == sql.ErrNoRows {
			return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
		}
		if err != nil {
			return apperrors.NewInternalError("failed to get service", err)
		}
		return attachServiceDetail(ctx, tx, map[string]*entities.Service{service.ID: service})
	})
	if err != nil {
		return nil, asAppError(err, "failed to get service")
	}
	return service, nil
}

// Update applies the scalar changes and replaces every association the update
// names, all in one transaction
func (a *ServiceAdapter) Update(ctx context.Context, id string, update entities.ServiceUpdate) error {
	record := goqu.Record{"updated_at": nowUTC()}
	setString := func(column string, v *string) {
		if v != nil {
			record[column] = *v
		}
	}
	setString("name", update.Name)
	setString("description", update.Description)
	setString("url", update.URL)
	setString("fees", update.Fees)
	setString("additional_info", update.AdditionalInfo)
	if update.AgesServed != nil {
		record["ages_served"] = jsonParam(update.AgesServed)
	}
	if update.WhoDoesItServe != nil {
		record["who_does_it_serve"] = jsonParam(update.WhoDoesItServe)
	}

	err := a.client.WithTx(ctx, nil, func(tx *sql.Tx) error {
		result, err := execDataset(ctx, tx, dialect.Update("services").Set(record).Where(goqu.Ex{"id": id}), "update service")
		if err != nil {
			return err
		}
		if err := requireAffected(result, "service", id); err != nil {
			return err
		}

		steps := []func(context.Context, queryer, string, entities.ServiceUpdate) error{
			replaceServiceTaxonomy,
			replaceRegularSchedules,
			replaceHolidaySchedules,
			replaceDocuments,
			updateServiceEventInfo,
			upsertEligibilities,
			replaceServiceAreas,
			replaceServiceLanguages,
		}
		for _, step := range steps {
			if err := step(ctx, tx, id, update); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return asAppError(err, "failed to update service")
	}
	return nil
}

func replaceServiceTaxonomy(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if update.TaxonomyID == nil {
		return nil
	}
	if _, err := execDataset(ctx, tx, dialect.Delete("service_taxonomy").Where(goqu.Ex{"service_id": id}), "clear service taxonomy"); err != nil {
		return err
	}
	_, err := execDataset(ctx, tx, dialect.Insert("service_taxonomy").Rows(goqu.Record{
		"id":          uuid.NewString(),
		"service_id":  id,
		"taxonomy_id": *update.TaxonomyID,
	}), "tag service")
	return err
}

func replaceRegularSchedules(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if update.Hours == nil {
		return nil
	}
	if _, err := execDataset(ctx, tx, dialect.Delete("regular_schedules").Where(goqu.Ex{"service_id": id}), "clear hours"); err != nil {
		return err
	}
	if len(update.Hours) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(update.Hours))
	for _, h := range update.Hours {
		weekday, err := utils.ParseWeekday(h.Weekday)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		rows = append(rows, goqu.Record{
			"id":         uuid.NewString(),
			"weekday":    weekday,
			"opens_at":   h.OpensAt,
			"closes_at":  h.ClosesAt,
			"service_id": id,
		})
	}
	_, err := execDataset(ctx, tx, dialect.Insert("regular_schedules").Rows(rows...), "create hours")
	return err
}

func replaceHolidaySchedules(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if update.IrregularHours == nil {
		return nil
	}
	if _, err := execDataset(ctx, tx, dialect.Delete("holiday_schedules").Where(goqu.Ex{"service_id": id}), "clear irregular hours"); err != nil {
		return err
	}
	if len(update.IrregularHours) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(update.IrregularHours))
	for _, e := range update.IrregularHours {
		var weekday *int
		if e.Weekday != nil {
			n, err := utils.ParseWeekday(*e.Weekday)
			if err != nil {
				return apperrors.NewValidationError(err.Error())
			}
			weekday = &n
		}
		rows = append(rows, goqu.Record{
			"id":         uuid.NewString(),
			"closed":     e.Closed,
			"opens_at":   e.OpensAt,
			"closes_at":  e.ClosesAt,
			"start_date": e.StartDate,
			"end_date":   e.EndDate,
			"weekday":    weekday,
			"occasion":   e.Occasion,
			"service_id": id,
		})
	}
	_, err := execDataset(ctx, tx, dialect.Insert("holiday_schedules").Rows(rows...), "create irregular hours")
	return err
}

func replaceDocuments(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	docs := update.Documents
	if docs == nil {
		return nil
	}
	if docs.Proofs != nil {
		if _, err := execDataset(ctx, tx, dialect.Delete("required_documents").Where(goqu.Ex{"service_id": id}), "clear required documents"); err != nil {
			return err
		}
		if len(docs.Proofs) > 0 {
			rows := make([]interface{}, 0, len(docs.Proofs))
			for _, proof := range docs.Proofs {
				rows = append(rows, goqu.Record{"id": uuid.NewString(), "service_id": id, "document": proof})
			}
			if _, err := execDataset(ctx, tx, dialect.Insert("required_documents").Rows(rows...), "create required documents"); err != nil {
				return err
			}
		}
	}

	info := goqu.Record{}
	if docs.RecertificationTime != nil {
		info["recertification_time"] = *docs.RecertificationTime
	}
	if docs.GracePeriod != nil {
		info["grace_period"] = *docs.GracePeriod
	}
	if docs.AdditionalInfo != nil {
		info["additional_info"] = *docs.AdditionalInfo
	}
	if len(info) == 0 {
		return nil
	}

	insert := goqu.Record{"id": uuid.NewString(), "service_id": id}
	for k, v := range info {
		insert[k] = v
	}
	_, err := execDataset(ctx, tx, dialect.Insert("documents_infos").
		Rows(insert).
		OnConflict(goqu.DoUpdate("service_id", info)), "upsert documents info")
	return err
}

func updateServiceEventInfo(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if update.EventRelatedInfo == nil {
		return nil
	}
	return upsertEventRelatedInfo(ctx, tx, "service_id", id, update.EventRelatedInfo)
}

// upsertEligibilities writes one eligibility row per named parameter; null
// values remove the restriction
func upsertEligibilities(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if len(update.Eligibility) == 0 {
		return nil
	}

	names := mapKeys(update.Eligibility)
	parameterIDs := make(map[string]string, len(names))
	ds := dialect.From("eligibility_parameters").Select("id", "name").Where(goqu.Ex{"name": names})
	err := queryRows(ctx, tx, ds, "eligibility parameters", func(row scanner) error {
		var parameterID, name string
		if err := row.Scan(&parameterID, &name); err != nil {
			return err
		}
		parameterIDs[name] = parameterID
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range names {
		parameterID, ok := parameterIDs[name]
		if !ok {
			return apperrors.NewValidationErrorf("eligibility parameter %q is not configured", name)
		}
		values := jsonParam(update.Eligibility[name])
		if values == nil {
			if _, err := execDataset(ctx, tx, dialect.Delete("eligibility").
				Where(goqu.Ex{"service_id": id, "parameter_id": parameterID}), "remove eligibility"); err != nil {
				return err
			}
			continue
		}
		if _, err := execDataset(ctx, tx, dialect.Insert("eligibility").
			Rows(goqu.Record{
				"id":              uuid.NewString(),
				"service_id":      id,
				"parameter_id":    parameterID,
				"eligible_values": values,
			}).
			OnConflict(goqu.DoUpdate("service_id, parameter_id", goqu.Record{
				"eligible_values": goqu.L("EXCLUDED.eligible_values"),
			})), "upsert eligibility"); err != nil {
			return err
		}
	}
	return nil
}

func replaceServiceAreas(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if update.AreaServed == nil {
		return nil
	}
	if _, err := execDataset(ctx, tx, dialect.Delete("service_areas").Where(goqu.Ex{"service_id": id}), "clear service area"); err != nil {
		return err
	}
	if len(update.AreaServed) == 0 {
		return nil
	}
	codes := append([]string(nil), update.AreaServed...)
	sort.Strings(codes)
	_, err := execDataset(ctx, tx, dialect.Insert("service_areas").Rows(goqu.Record{
		"id":           uuid.NewString(),
		"service_id":   id,
		"postal_codes": pq.Array(codes),
	}), "create service area")
	return err
}

func replaceServiceLanguages(ctx context.Context, tx queryer, id string, update entities.ServiceUpdate) error {
	if update.LanguageIDs == nil {
		return nil
	}
	if _, err := execDataset(ctx, tx, dialect.Delete("service_languages").Where(goqu.Ex{"service_id": id}), "clear service languages"); err != nil {
		return err
	}
	if len(update.LanguageIDs) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(update.LanguageIDs))
	for _, languageID := range update.LanguageIDs {
		rows = append(rows, goqu.Record{"service_id": id, "language_id": languageID})
	}
	_, err := execDataset(ctx, tx, dialect.Insert("service_languages").
		Rows(rows...).
		OnConflict(goqu.DoNothing()), "create service languages")
	return err
}

// EligibilityParameters lists the known eligibility parameters by name
func (a *ServiceAdapter) EligibilityParameters(ctx context.Context) ([]*entities.EligibilityParameter, error) {
	ds := a.db.From("eligibility_parameters").
		Select("id", "name").
		Order(goqu.I("name").Asc())

	parameters := make([]*entities.EligibilityParameter, 0)
	err := queryRows(ctx, a.client.DB(), ds, "eligibility parameters", func(row scanner) error {
		p := &entities.EligibilityParameter{}
		if err := row.Scan(&p.ID, &p.Name); err != nil {
			return err
		}
		parameters = append(parameters, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parameters, nil
}

// Languages lists every language row ordered by language code
func (a *ServiceAdapter) Languages(ctx context.Context) ([]*entities.Language, error) {
	ds := a.db.From("languages").
		Select("id", "language", "name").
		Order(goqu.I("language").Asc(), goqu.I("id").Asc())

	languages := make([]*entities.Language, 0)
	err := queryRows(ctx, a.client.DB(), ds, "languages", func(row scanner) error {
		l := &entities.Language{}
		if err := row.Scan(&l.ID, &l.Language, &l.Name); err != nil {
			return err
		}
		languages = append(languages, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return languages, nil
}
