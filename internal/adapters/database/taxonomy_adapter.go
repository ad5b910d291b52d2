package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/repositories"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

// TaxonomyAdapter implements the TaxonomyRepository interface
type TaxonomyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTaxonomyAdapter creates a new taxonomy adapter
func NewTaxonomyAdapter(client *postgres.Client) repositories.TaxonomyRepository {
	return &TaxonomyAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListAll returns every taxonomy ordered by name
func (a *TaxonomyAdapter) ListAll(ctx context.Context) ([]*entities.Taxonomy, error) {
	ds := a.db.From("taxonomies").
		Select("id", "name", "parent_id", "parent_name").
		Order(goqu.I("name").Asc(), goqu.I("id").Asc())

	var taxonomies []*entities.Taxonomy
	err := queryRows(ctx, a.client.DB(), ds, "taxonomies", func(row scanner) error {
		t := &entities.Taxonomy{}
		if err := row.Scan(&t.ID, &t.Name, &t.ParentID, &t.ParentName); err != nil {
			return err
		}
		taxonomies = append(taxonomies, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taxonomies, nil
}

// GetByID retrieves a taxonomy by ID
func (a *TaxonomyAdapter) GetByID(ctx context.Context, id string) (*entities.Taxonomy, error) {
	query, args, err := a.db.From("taxonomies").
		Select("id", "name", "parent_id", "parent_name").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	t := &entities.Taxonomy{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.Name, &t.ParentID, &t.ParentName)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("taxonomy with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get taxonomy", err)
	}
	return t, nil
}
