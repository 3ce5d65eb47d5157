// Package main is the entry point for the Platefinder API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/platefinder/platefinder/internal/api"
	"github.com/platefinder/platefinder/internal/auth"
	"github.com/platefinder/platefinder/internal/config"
	"github.com/platefinder/platefinder/internal/geo"
	"github.com/platefinder/platefinder/internal/geoloc"
	"github.com/platefinder/platefinder/internal/health"
	"github.com/platefinder/platefinder/internal/idempotency"
	"github.com/platefinder/platefinder/internal/middleware"
	"github.com/platefinder/platefinder/internal/places"
	"github.com/platefinder/platefinder/internal/settings"
	"github.com/platefinder/platefinder/internal/tracing"
	"github.com/platefinder/platefinder/internal/upload"
	"github.com/platefinder/platefinder/internal/userdata"
	"github.com/platefinder/platefinder/internal/visit"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file (environment variables take precedence)")
	flag.Parse()

	if *help {
		fmt.Println("Platefinder API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Postgres holds the visit history.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database not reachable at startup, readiness will report it", "error", err)
	}
	pingCancel()

	// Redis backs the document store and rate limiting.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	gateway, err := places.NewGoogleGateway(cfg.GoogleMapsAPIKey)
	if err != nil {
		logger.Error("failed to create places gateway", "error", err)
		os.Exit(1)
	}

	resolver := geoloc.NewResolver(cfg.IPLookupURL,
		geoloc.WithFallback(geo.Coordinate{Lat: cfg.DefaultLatitude, Lng: cfg.DefaultLongitude}))

	documentStore := userdata.NewRedisDocumentStore(redisClient)
	userDataAdapter := userdata.NewAdapter(documentStore)
	settingsService := settings.NewService(documentStore)
	visitRepo := visit.NewPostgresRepository(db, logger)

	var jwtService *auth.JWTService
	if cfg.JWTSecretPrevious != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTSecretPrevious)
	} else {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	var uploadHandlers *api.UploadHandlers
	if cfg.UploadsEnabled() {
		uploadService, err := upload.NewService(upload.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			MaxSizeMB:       cfg.S3MaxUploadSizeMB,
		})
		if err != nil {
			logger.Error("failed to create upload service", "error", err)
			os.Exit(1)
		}
		uploadHandlers = api.NewUploadHandlers(uploadService)
	} else {
		logger.Info("object storage not configured, photo uploads disabled")
	}

	// Prometheus registry with process/runtime collectors plus our own.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "platefinder-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: "otlp-grpc",
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 0.1,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Idempotency keys are kept in memory and swept hourly.
	idempotencyRepo := idempotency.NewInMemoryRepository()
	cleanupStop := make(chan struct{})
	go idempotency.RunPeriodicCleanup(idempotencyRepo, time.Hour, 24*time.Hour, cleanupStop)

	mux := api.NewRouter(api.RouterConfig{
		Places:   api.NewPlacesHandlers(gateway),
		Nearby:   api.NewNearbyHandlers(gateway, resolver),
		UserData: api.NewUserDataHandlers(userDataAdapter),
		Settings: api.NewSettingsHandlers(settingsService),
		Visits:   api.NewVisitHandlers(visitRepo),
		Uploads:  uploadHandlers,
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:      health.NewDBChecker(db),
			RedisChecker:   health.NewRedisChecker(redisClient),
			MetricsEnabled: true,
		}),
		RequireAuth: middleware.RequireAuth(jwtService),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	rateLimitStore := middleware.NewRedisRateLimitStore(redisClient)
	idempotentRoutes := map[string]bool{
		"/api/me/visits": true,
	}

	// Middleware chain, outermost first.
	var handler http.Handler = mux
	handler = middleware.Idempotency(idempotencyRepo, idempotentRoutes)(handler)
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.UserKeyFunc())(handler)
	handler = middleware.HTTPMetrics(metrics)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing("platefinder-api")(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     cfg.ProfilingEnabled,
		Environment: cfg.Env,
	})(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	close(cleanupStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracingProvider.Shutdown(ctx); err != nil {
		logger.Warn("tracing shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
