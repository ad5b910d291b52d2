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
	"github.com/streetlives/streetlives-api/pkg/utils"
)

// OrganizationAdapter implements the OrganizationRepository interface
type OrganizationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrganizationAdapter creates a new organization adapter
func NewOrganizationAdapter(client *postgres.Client) repositories.OrganizationRepository {
	return &OrganizationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// List returns organizations whose name contains searchString, ordered by name
func (a *OrganizationAdapter) List(ctx context.Context, searchString string) ([]*entities.Organization, error) {
	ds := a.db.From("organizations").
		Select("id", "name", "description", "url", "created_at", "updated_at").
		Order(goqu.I("name").Asc(), goqu.I("id").Asc())
	if searchString != "" {
		ds = ds.Where(goqu.I("name").ILike(utils.ContainsPattern(searchString)))
	}

	organizations := make([]*entities.Organization, 0)
	err := queryRows(ctx, a.client.DB(), ds, "organizations", func(row scanner) error {
		org, err := scanOrganization(row)
		if err != nil {
			return err
		}
		organizations = append(organizations, org)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return organizations, nil
}

// GetByID retrieves an organization by ID
func (a *OrganizationAdapter) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	query, args, err := a.db.From("organizations").
		Select("id", "name", "description", "url", "created_at", "updated_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	org, err := scanOrganization(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("organization with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get organization", err)
	}
	return org, nil
}

// Create creates a new organization
func (a *OrganizationAdapter) Create(ctx context.Context, org *entities.Organization) error {
	record := goqu.Record{
		"id":          org.ID,
		"name":        org.Name,
		"description": org.Description,
		"url":         org.URL,
		"created_at":  org.CreatedAt,
		"updated_at":  org.UpdatedAt,
	}

	query, args, err := a.db.Insert("organizations").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create organization", err)
	}
	return nil
}

// Update applies a partial update
func (a *OrganizationAdapter) Update(ctx context.Context, id string, update entities.OrganizationUpdate) error {
	record := goqu.Record{"updated_at": nowUTC()}
	if update.Name != nil {
		record["name"] = *update.Name
	}
	if update.Description != nil {
		record["description"] = *update.Description
	}
	if update.URL != nil {
		record["url"] = *update.URL
	}

	query, args, err := a.db.Update("organizations").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update organization", err)
	}
	return requireAffected(result, "organization", id)
}
