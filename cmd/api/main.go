package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streetlives/streetlives-api/internal/adapters/cache"
	"github.com/streetlives/streetlives-api/internal/adapters/database"
	"github.com/streetlives/streetlives-api/internal/api/handlers"
	"github.com/streetlives/streetlives-api/internal/api/middleware"
	"github.com/streetlives/streetlives-api/internal/api/routes"
	"github.com/streetlives/streetlives-api/internal/application/services"
	"github.com/streetlives/streetlives-api/internal/domain/providers"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/postgres"
	"github.com/streetlives/streetlives-api/internal/infrastructure/clients/redis"
	"github.com/streetlives/streetlives-api/internal/infrastructure/observability"
	"github.com/streetlives/streetlives-api/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pgClient); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("Schema applied")
	}

	// Redis backs the response cache; without it each instance caches in memory
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory response cache")
		cacheProvider = cache.NewMemoryAdapter(time.Duration(cfg.Search.CacheTTLSeconds) * time.Second)
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters
	organizationAdapter := database.NewOrganizationAdapter(pgClient)
	locationAdapter := database.NewLocationAdapter(pgClient)
	serviceAdapter := database.NewServiceAdapter(pgClient)
	taxonomyAdapter := database.NewTaxonomyAdapter(pgClient)
	commentAdapter := database.NewCommentAdapter(pgClient)

	// Initialize services
	taxonomyService := services.NewTaxonomyService(taxonomyAdapter,
		time.Duration(cfg.Search.TaxonomyCacheTTLSeconds)*time.Second)
	searchService := services.NewSearchService(locationAdapter, taxonomyService, metrics, cfg.Search.DefaultMaxResults)
	locationService := services.NewLocationService(locationAdapter, organizationAdapter)
	organizationService := services.NewOrganizationService(organizationAdapter, locationAdapter)
	serviceService := services.NewServiceService(serviceAdapter, locationAdapter, taxonomyAdapter)
	commentService := services.NewCommentService(commentAdapter, locationAdapter)
	cacheInvalidationService := services.NewCacheInvalidationService(cacheProvider, taxonomyService)

	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider, cacheInvalidationService, metrics, cfg.Search.CacheTTLSeconds)

	// Set up router
	router := routes.NewRouter(
		handlers.NewLocationHandler(searchService, locationService),
		handlers.NewOrganizationHandler(organizationService),
		handlers.NewServiceHandler(serviceService),
		handlers.NewTaxonomyHandler(taxonomyService),
		handlers.NewCommentHandler(commentService),
		cacheMiddleware,
		metrics,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
