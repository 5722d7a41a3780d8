package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sync-photo-client/internal/backend"
	"sync-photo-client/internal/backend/blob"
	"sync-photo-client/internal/backend/hub"
	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"
	"sync-photo-client/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// serve runs the reference backend until SIGINT or SIGTERM
func serve(cfg *config.Config) {
	ctx := context.Background()

	store, closeStore := openStore(ctx, cfg.Server)
	defer closeStore()

	blobs := openBlobs(ctx, cfg.Storage)
	wsHub := hub.NewHub(store)

	router := backend.NewRouter(backend.Deps{
		Store:   store,
		Blobs:   blobs,
		Tokens:  middleware.NewJWT(cfg.Server.JWTSecret),
		Hub:     wsHub,
		Limiter: middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore connects to Postgres when a DSN is configured, otherwise keeps
// everything in memory
func openStore(ctx context.Context, cfg config.ServerConfig) (repository.Store, func()) {
	if cfg.DatabaseDSN == "" {
		log.Warn().Msg("No database configured, using in-memory store")
		return repository.NewMemoryStore(), func() {}
	}

	db, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	store := repository.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database schema")
	}
	return store, db.Close
}

// openBlobs uploads to S3 when an endpoint or credentials are configured,
// otherwise keeps images in memory
func openBlobs(ctx context.Context, cfg config.StorageConfig) blob.Store {
	if cfg.Endpoint == "" && cfg.AccessKey == "" {
		log.Warn().Msg("No object storage configured, using in-memory blobs")
		return blob.NewMemoryStore()
	}

	s3Store, err := blob.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create S3 store")
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 storage configured")
	return s3Store
}
