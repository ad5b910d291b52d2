package database

import (
	"context"
	_ "embed"

	"github.com/rs/zerolog/log"

	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/streetlives/streetlives-api/pkg/errors"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by Migrate
func Schema() string {
	return schema
}

// Migrate creates every table that does not exist yet
func Migrate(ctx context.Context, client *postgres.Client) error {
	if _, err := client.DB().ExecContext(ctx, schema); err != nil {
		return apperrors.NewInternalError("failed to apply schema", err)
	}
	log.Info().Msg("Database schema is up to date")
	return nil
}
