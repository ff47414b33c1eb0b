package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/storeplane/internal/handler"
	"github.com/yourorg/storeplane/internal/infrastructure/cluster"
	"github.com/yourorg/storeplane/internal/infrastructure/helm"
	"github.com/yourorg/storeplane/internal/infrastructure/logger"
	"github.com/yourorg/storeplane/internal/infrastructure/redis"
	"github.com/yourorg/storeplane/internal/observability/metrics"
	"github.com/yourorg/storeplane/internal/observability/tracing"
	"github.com/yourorg/storeplane/internal/repository"
	"github.com/yourorg/storeplane/internal/security/auth"
	"github.com/yourorg/storeplane/internal/security/middleware"
	"github.com/yourorg/storeplane/internal/security/ratelimit"
	"github.com/yourorg/storeplane/internal/service"
	"github.com/yourorg/storeplane/internal/values"
	"github.com/yourorg/storeplane/internal/worker"
	"github.com/yourorg/storeplane/pkg/config"
	"github.com/yourorg/storeplane/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting storeplane server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := tracing.Init(ctx, log, "storeplane", cfg.Environment)
	if err != nil {
		log.Warn("tracing disabled", slog.String("error", err.Error()))
	}

	// 4. Initialize Redis client
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize Postgres pool and schema
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool.GetDB()); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Initialize cluster client and release deployer
	clusterClient, err := cluster.NewClient(cfg.Kubeconfig, log)
	if err != nil {
		log.Error("failed to initialize cluster client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	deployer := helm.NewDeployer(cfg.HelmBinary, cfg.DeployTimeout, log)
	valuesLoader := values.NewLoader(cfg.ValuesDir, log)

	// 7. Initialize repositories
	storeRepo := repository.NewPostgresStoreRepository(pool.GetDB(), log)
	cachedRepo := repository.NewCachedStoreRepository(storeRepo, redisClient, log)
	operatorRepo := repository.NewPostgresOperatorRepository(pool.GetDB(), log)

	// 8. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "storeplane")
	storeService := service.NewStoreService(cachedRepo, clusterClient, deployer, valuesLoader, log, cfg)
	authService := service.NewAuthService(operatorRepo, tokenManager, log)

	// 9. Initialize handlers
	createHandler := handler.NewCreateStoreHandler(storeService, log)
	listHandler := handler.NewListStoresHandler(storeService, log)
	getHandler := handler.NewGetStoreHandler(storeService, log)
	deleteHandler := handler.NewDeleteStoreHandler(storeService, log)
	credentialsHandler := handler.NewCredentialsHandler(storeService, log)
	auditHandler := handler.NewAuditHandler(storeService, log)
	typesHandler := handler.NewStoreTypesHandler()
	eventsHandler := handler.NewEventsHandler(cachedRepo, log, cfg.CORSAllowedOrigins)
	authHandler := handler.NewAuthHandler(authService, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	requireAuth := middleware.RequireAuth(tokenManager, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/stores", createHandler)
	mux.Handle("GET /api/stores", listHandler)
	mux.Handle("GET /api/stores/{id}", getHandler)
	mux.Handle("DELETE /api/stores/{id}", deleteHandler)
	mux.Handle("GET /api/stores/{id}/credentials", requireAuth(credentialsHandler))
	mux.Handle("GET /api/audit", auditHandler)
	mux.Handle("GET /api/store-types", typesHandler)
	mux.Handle("GET /ws/stores/{id}/events", eventsHandler)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// 11. Rate limiter for mutating store requests
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)

	// Chain middleware: request ID -> metrics -> rate limit -> CORS, with OTel outermost
	rootHandler := otelhttp.NewHandler(
		withRequestID(
			metrics.HTTPMetricsMiddleware(
				middleware.RateLimitMiddleware(rateLimiter, log)(handlerWithCORS),
			),
			log,
		),
		"storeplane",
	)

	// 12. Start deletion reaper in background
	reaper := worker.NewDeletionReaper(cachedRepo, clusterClient, storeService, log, cfg.ReaperInterval)
	go reaper.Start(ctx)

	// 13. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("max_stores", cfg.MaxStores),
		slog.Int("rate_limit", cfg.RateLimitMaxRequests),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop deletion reaper
	rateLimiter.Stop()
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown error", slog.String("error", err.Error()))
		}
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
