package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/streetlives/streetlives-api/internal/adapters/cache"
	"github.com/streetlives/streetlives-api/internal/adapters/database"
	"github.com/streetlives/streetlives-api/internal/application/services"
	"github.com/streetlives/streetlives-api/internal/domain/entities"
	"github.com/streetlives/streetlives-api/internal/domain/search"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/redis"
	"github.com/streetlives/streetlives-api/internal/infrastructure/observability"
	"github.com/streetlives/streetlives-api/pkg/config"
)

type seedTaxonomy struct {
	name     string
	children []string
}

type seedSite struct {
	organization string
	location     string
	lon, lat     float64
	street       string
	postalCode   string
	service      string
	taxonomy     string
	hours        []entities.HoursInput
	eligibility  map[string]json.RawMessage
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("streetlives-seed", cfg.Env)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	db := pgClient.DB()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				comments,
				organizations,
				taxonomies,
				eligibility_parameters,
				languages
			CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	// 1. Eligibility parameters
	for _, name := range search.EligibilityParameters {
		_, err := db.ExecContext(ctx,
			`INSERT INTO eligibility_parameters (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name)
		if err != nil {
			log.Fatal().Err(err).Str("parameter", name).Msg("Failed to seed eligibility parameter")
		}
	}

	// Languages, keyed by code
	for code, name := range map[string]string{"en": "English", "es": "Spanish", "zh": "Chinese", "ru": "Russian"} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO languages (id, language, name) SELECT $1::uuid, $2::text, $3::text
			WHERE NOT EXISTS (SELECT 1 FROM languages WHERE language = $2::text)`,
			uuid.NewString(), code, name)
		if err != nil {
			log.Fatal().Err(err).Str("language", code).Msg("Failed to seed language")
		}
	}

	// 2. Taxonomy
	taxonomies := []seedTaxonomy{
		{name: "Food", children: []string{"Food Pantry", "Soup Kitchen"}},
		{name: "Shelter", children: []string{"Drop-in Center", "Overnight Shelter"}},
		{name: "Clothing", children: []string{"Clothing Pantry"}},
		{name: "Personal Care", children: []string{"Shower", "Laundry", "Toiletries"}},
	}
	taxonomyIDs := make(map[string]string)
	for _, parent := range taxonomies {
		parentID := uuid.NewString()
		if _, err := db.ExecContext(ctx, `INSERT INTO taxonomies (id, name) VALUES ($1, $2)`, parentID, parent.name); err != nil {
			log.Fatal().Err(err).Str("taxonomy", parent.name).Msg("Failed to seed taxonomy")
		}
		taxonomyIDs[parent.name] = parentID
		for _, child := range parent.children {
			childID := uuid.NewString()
			_, err := db.ExecContext(ctx,
				`INSERT INTO taxonomies (id, name, parent_id, parent_name) VALUES ($1, $2, $3, $4)`,
				childID, child, parentID, parent.name)
			if err != nil {
				log.Fatal().Err(err).Str("taxonomy", child).Msg("Failed to seed taxonomy")
			}
			taxonomyIDs[child] = childID
		}
	}

	// 3. Organizations, locations and services
	organizationAdapter := database.NewOrganizationAdapter(pgClient)
	locationAdapter := database.NewLocationAdapter(pgClient)
	taxonomyAdapter := database.NewTaxonomyAdapter(pgClient)
	organizationService := services.NewOrganizationService(organizationAdapter, locationAdapter)
	locationService := services.NewLocationService(locationAdapter, organizationAdapter)
	serviceService := services.NewServiceService(database.NewServiceAdapter(pgClient), locationAdapter, taxonomyAdapter)

	weekdays := func(opens, closes string) []entities.HoursInput {
		var hours []entities.HoursInput
		for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"} {
			hours = append(hours, entities.HoursInput{Weekday: day, OpensAt: opens, ClosesAt: closes})
		}
		return hours
	}

	sites := []seedSite{
		{
			organization: "Holy Apostles Soup Kitchen",
			location:     "Church of the Holy Apostles",
			lon:          -73.9977,
			lat:          40.7479,
			street:       "296 9th Ave",
			postalCode:   "10001",
			service:      "Hot lunch",
			taxonomy:     "Soup Kitchen",
			hours:        weekdays("10:30", "12:30"),
		},
		{
			organization: "West Side Campaign Against Hunger",
			location:     "WSCAH Pantry",
			lon:          -73.9787,
			lat:          40.7836,
			street:       "263 W 86th St",
			postalCode:   "10024",
			service:      "Customer-choice pantry",
			taxonomy:     "Food Pantry",
			hours:        weekdays("09:00", "17:00"),
		},
		{
			organization: "Bowery Mission",
			location:     "Bowery Mission Men's Shelter",
			lon:          -73.9930,
			lat:          40.7224,
			street:       "227 Bowery",
			postalCode:   "10002",
			service:      "Showers",
			taxonomy:     "Shower",
			hours:        weekdays("07:00", "11:00"),
			eligibility:  map[string]json.RawMessage{"gender": json.RawMessage(`["male"]`)},
		},
	}

	for _, site := range sites {
		org, err := organizationService.Create(ctx, site.organization, nil, nil)
		if err != nil {
			log.Error().Err(err).Str("organization", site.organization).Msg("Failed to create organization")
			continue
		}

		name := site.location
		loc, err := locationService.Create(ctx, entities.NewLocation{
			OrganizationID: org.ID,
			Name:           &name,
			Position:       entities.Position{Longitude: site.lon, Latitude: site.lat},
			Address: entities.PhysicalAddress{
				Address1:      site.street,
				City:          "New York",
				StateProvince: "NY",
				PostalCode:    site.postalCode,
				Country:       "US",
			},
		})
		if err != nil {
			log.Error().Err(err).Str("location", site.location).Msg("Failed to create location")
			continue
		}

		svc, err := serviceService.Create(ctx, entities.NewService{
			Name:       site.service,
			TaxonomyID: taxonomyIDs[site.taxonomy],
			LocationID: loc.ID,
		})
		if err != nil {
			log.Error().Err(err).Str("service", site.service).Msg("Failed to create service")
			continue
		}

		err = serviceService.Update(ctx, svc.ID, entities.ServiceUpdate{
			Hours:       site.hours,
			Eligibility: site.eligibility,
		})
		if err != nil {
			log.Error().Err(err).Str("service", site.service).Msg("Failed to set service hours")
		}
	}

	// Running API instances may hold responses cached before the seed
	if redisClient, err := redis.NewClient(&cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, cached responses were not purged")
	} else {
		defer redisClient.Close()
		invalidator := services.NewCacheInvalidationService(cache.NewRedisAdapter(redisClient), nil)
		if err := invalidator.InvalidateTaxonomy(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to purge cached taxonomy")
		}
		if err := invalidator.InvalidateReadCaches(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to purge cached responses")
		}
	}

	log.Info().Int("locations", len(sites)).Msg("Seeding completed successfully")
}
