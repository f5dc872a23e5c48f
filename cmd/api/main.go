//	@title			Radif Media API
//	@version		1.0
//	@description	Image uploads with resized variants published to object storage.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/radif/media/internal/asset"
	"github.com/radif/media/internal/config"
	"github.com/radif/media/internal/db"
	"github.com/radif/media/internal/logging"
	appMiddleware "github.com/radif/media/internal/middleware"
	"github.com/radif/media/internal/storage"

	_ "github.com/radif/media/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Every collection needs a table from the embedded migrations.
	schemas, err := asset.SchemasFrom(cfg.Collections)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid collection configuration")
	}
	tables, err := db.Tables()
	if err != nil {
		log.Fatal().Err(err).Msg("reading migrations failed")
	}
	if err := asset.CheckTables(schemas, tables); err != nil {
		log.Fatal().Err(err).Msg("invalid collection configuration")
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("object storage init failed")
	}
	store, err := storage.NewInstrumented(backend, "media", prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("storage metrics registration failed")
	}

	// Wire dependencies per collection: repository → lifecycle → service
	services := make([]*asset.Service, 0, len(schemas))
	for _, schema := range schemas {
		repo := asset.NewRepository(pool, schema)
		lifecycle := asset.NewLifecycle(schema, store)
		services = append(services, asset.NewService(repo, lifecycle))
		log.Info().Str("table", schema.Table()).Strs("variants", schema.VariantNames()).Msg("collection ready")
	}
	assetHandler := asset.NewHandler(services...)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Files written by the local driver are served from the public base path.
	if local, ok := backend.(*storage.FSStore); ok {
		mount := "/files"
		if u, err := url.Parse(cfg.Storage.PublicBase); err == nil && strings.Trim(u.Path, "/") != "" {
			mount = "/" + strings.Trim(u.Path, "/")
		}
		r.Handle(mount+"/*", http.StripPrefix(mount, local.Handler()))
		log.Info().Str("path", mount).Msg("serving local storage")
	}

	// API v1
	r.Route("/api/v1/{collection}", func(r chi.Router) {
		assetHandler.Routes(r, appMiddleware.RequireAuth(cfg.JWTSecret))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
