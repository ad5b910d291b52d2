package database

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientFromDB(mockDB), mock
}

func strPtr(s string) *string { return &s }

func TestTaxonomyAdapter_ListAll(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewTaxonomyAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "taxonomies" ORDER BY "name" ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "parent_name"}).
			AddRow("food", "Food", nil, nil).
			AddRow("pantry", "Food Pantry", "food", "Food"))

	taxonomies, err := adapter.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, taxonomies, 2)
	assert.Nil(t, taxonomies[0].ParentID)
	require.NotNil(t, taxonomies[1].ParentID)
	assert.Equal(t, "food", *taxonomies[1].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxonomyAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewTaxonomyAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "taxonomies" WHERE ("id" = 'missing')`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "parent_name"}))

	_, err := adapter.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationAdapter_ListFiltersByName(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewOrganizationAdapter(client)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ("name" ILIKE '%100\% fresh%')`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "url", "created_at", "updated_at"}).
			AddRow("o1", "100% Fresh", nil, "https://example.org", now, now))

	orgs, err := adapter.List(context.Background(), "100% fresh")
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "100% Fresh", orgs[0].Name)
	require.NotNil(t, orgs[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationAdapter_UpdateMissing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewOrganizationAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "organizations" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Update(context.Background(), "o1", entities.OrganizationUpdate{Name: strPtr("New")})
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentAdapter_ListForLocationNestsReplies(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewCommentAdapter(client)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "location_id", "content", "posted_by", "contact_info", "hidden", "reply_to_id", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "comments" WHERE (("location_id" = 'l1') AND ("hidden" IS NOT TRUE))`)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r2", "l1", "second reply", nil, nil, false, "c1", base.Add(3*time.Hour), base).
			AddRow("c2", "l1", "newer", nil, nil, false, nil, base.Add(2*time.Hour), base).
			AddRow("r1", "l1", "first reply", nil, nil, false, "c1", base.Add(time.Hour), base).
			AddRow("c1", "l1", "older", "Ann", nil, false, nil, base, base).
			AddRow("orphan", "l1", "reply to hidden", nil, nil, false, "hidden-parent", base, base))

	comments, err := adapter.ListForLocation(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, "c1", comments[1].ID)
	require.Len(t, comments[1].Replies, 2)
	assert.Equal(t, "r1", comments[1].Replies[0].ID)
	assert.Equal(t, "r2", comments[1].Replies[1].ID)
	assert.Empty(t, comments[0].Replies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdapter_CreateRunsInOneTransaction(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewServiceAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "services"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "service_at_location"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "service_taxonomy"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	service, err := adapter.Create(context.Background(), "o1", entities.NewService{
		Name:       "Food Pantry",
		TaxonomyID: "food",
		LocationID: "l1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, service.ID)
	assert.Equal(t, "o1", service.OrganizationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdapter_UpdateRollsBackOnUnknownParameter(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewServiceAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "services" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "eligibility_parameters" WHERE ("name" IN ('age'))`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectRollback()

	err := adapter.Update(context.Background(), "s1", entities.ServiceUpdate{
		Eligibility: map[string]json.RawMessage{"age": json.RawMessage(`[18]`)},
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdapter_UpdateReplacesAssociations(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewServiceAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "services" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "regular_schedules" WHERE ("service_id" = 's1')`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "regular_schedules"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "eligibility_parameters"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("p-age", "age"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "eligibility" WHERE (("parameter_id" = 'p-age') AND ("service_id" = 's1'))`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "service_areas"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.Update(context.Background(), "s1", entities.ServiceUpdate{
		Hours:       []entities.HoursInput{{Weekday: "Monday", OpensAt: "09:00:00", ClosesAt: "17:00:00"}},
		Eligibility: map[string]json.RawMessage{"age": json.RawMessage(`null`)},
		AreaServed:  []string{},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdapter_UpdateMissing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewServiceAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "services" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := adapter.Update(context.Background(), "missing", entities.ServiceUpdate{Name: strPtr("x")})
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationAdapter_FindIDs(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "l"."id" FROM "locations" AS "l"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := adapter.FindIDs(context.Background(), search.QueryPlan{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationAdapter_FetchForSearchEmpty(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client)

	fetch, err := adapter.FetchForSearch(context.Background(), nil, search.ProjectionFull, "")
	require.NoError(t, err)
	assert.Empty(t, fetch.Locations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "locations" AS "l" WHERE ("l"."id" IN ('missing'))`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := adapter.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationAdapter_ListByOrganizationSkipsHidden(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE (("l"."organization_id" = 'org-1') AND ("l"."hidden_from_search" IS NOT TRUE))`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	locations, err := adapter.ListByOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, locations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdapter_Languages(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewServiceAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "language", "name" FROM "languages" ORDER BY "language" ASC, "id" ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "language", "name"}).
			AddRow("lang-en", "en", "English").
			AddRow("lang-es", "es", nil))

	languages, err := adapter.Languages(context.Background())
	require.NoError(t, err)
	require.Len(t, languages, 2)
	assert.Equal(t, "en", *languages[0].Language)
	assert.Nil(t, languages[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationAdapter_UpdateCreatesMissingAddress(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewLocationAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "locations" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "physical_addresses" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := adapter.Update(context.Background(), "l1", entities.LocationUpdate{
		Address: &entities.AddressUpdate{City: strPtr("New York")},
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
