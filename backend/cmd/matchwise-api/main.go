// @title Matchwise API
// @version 1.0
// @description Peer-to-peer skill exchange matching API

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"matchwise/backend/internal/api"
	"matchwise/backend/internal/api/handlers"
	"matchwise/backend/internal/auth"
	"matchwise/backend/internal/config"
	"matchwise/backend/internal/db"
	"matchwise/backend/internal/events"
	"matchwise/backend/internal/geocode"
	"matchwise/backend/internal/health"
	"matchwise/backend/internal/logger"
	"matchwise/backend/internal/matching"
	"matchwise/backend/internal/metrics"
	"matchwise/backend/internal/repository"
	"matchwise/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load and validate configuration first (before logger)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logger)

	logger.Info().
		Str("environment", cfg.Logger.Environment).
		Str("log_level", cfg.Logger.Level).
		Str("geocoding_provider", cfg.Geocoding.Provider).
		Msg("configuration loaded successfully")

	// Run migrations before connecting to database
	logger.Info().Msg("running database migrations")
	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("database connected successfully")

	// Initialize repositories
	listingRepo := repository.NewListingRepository(database.Pool)
	matchRepo := repository.NewMatchRepository(database.Pool)

	// Geocode cache (feature-flagged)
	var cache redis.Cmdable
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, geocode cache will fall through")
		}
		cache = client
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("geocode cache enabled")
	}

	geocoder, err := geocode.New(cfg.Geocoding, cache)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize geocoder")
	}

	// Match lifecycle events (feature-flagged)
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.Enabled {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS)
		if err != nil {
			logger.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("failed to connect to NATS")
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info().Str("url", cfg.NATS.URL).Msg("match events enabled")
	}

	scoring := matching.DefaultScoringConfig
	scoring.MinScore = cfg.Matching.MinScore
	scoring.MaxResults = cfg.Matching.MaxResults
	scoring.FallbackDistanceKM = cfg.Matching.FallbackDistanceKM

	// Initialize services
	matchService := service.NewMatchService(listingRepo, matchRepo, geocoder, publisher, service.MatchServiceConfig{
		Scoring:        scoring,
		GeocodeTimeout: cfg.Geocoding.Timeout,
		Concurrency:    cfg.Geocoding.Concurrency,
	})

	// Initialize handlers
	matchHandler := handlers.NewMatchHandler(matchService)

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS))
	router.Use(api.RecoveryMiddleware())

	healthChecker := health.NewHealthChecker(database, cfg.Database.HealthTimeout)
	router.GET("/health", healthChecker.Handler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(auth.APIKeyMiddleware(cfg))
	matchHandler.RegisterRoutes(v1)

	addr := cfg.GetBindAddress()
	// Use a listener so we can discover the selected port when PORT=0
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to bind listener")
	}

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		logger.Fatal().Msg("failed to determine TCP address")
	}
	selectedPort := tcpAddr.Port

	srv := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		logger.Info().
			Int("port", selectedPort).
			Str("addr", cfg.Server.Host).
			Msg("starting server")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")

	// Print the selected port on graceful exit for supervising processes
	fmt.Printf("PORT=%d\n", selectedPort) //nolint:forbidigo // Intentional stdout output for supervisor
}
