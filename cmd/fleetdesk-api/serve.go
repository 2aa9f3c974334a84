package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetdesk-api/internal/auth"
	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/config"
	"fleetdesk-api/internal/database"
	"fleetdesk-api/internal/http/client"
	"fleetdesk-api/internal/http/handler"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/ratelimit"
	"fleetdesk-api/internal/repo"
	"fleetdesk-api/internal/service"
	"fleetdesk-api/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the FleetDesk API HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.OTELServiceName, "info")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info(ctx, "starting fleetdesk api",
		zap.String("version", "1.0.0"),
		zap.String("service", cfg.OTELServiceName),
	)

	// Run database migrations
	log.Info(ctx, "running database migrations")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info(ctx, "migrations completed successfully")

	// Prometheus metrics are always on; tracing is opt-in
	metrics := telemetry.NewMetrics()

	var tracerProvider *sdktrace.TracerProvider
	if cfg.OTELEnabled && cfg.OTELExporterEndpoint != "" {
		log.Info(ctx, "initializing tracing", zap.String("endpoint", cfg.OTELExporterEndpoint))

		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}
	} else {
		log.Info(ctx, "tracing disabled (opt-in only or missing endpoint)")
	}

	// Connect to database
	log.Info(ctx, "connecting to database")
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Info(ctx, "database connected")

	// Connect to Redis
	log.Info(ctx, "connecting to redis")
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Ping Redis to ensure connectivity
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info(ctx, "redis connected")

	// Initialize JWT key store and resolver
	log.Info(ctx, "initializing JWT authentication")
	keyStore := auth.NewKeyStore()

	// Load HS256 key (JWT_HS256_SECRET must be Base64-encoded)
	secretBytes, err := base64.StdEncoding.DecodeString(cfg.JWTHS256Secret)
	if err != nil {
		return fmt.Errorf("JWT_HS256_SECRET must be valid Base64-encoded: %w", err)
	}
	if len(secretBytes) < 32 {
		return fmt.Errorf("JWT_HS256_SECRET decoded bytes must be at least 32 bytes (256 bits), got %d bytes", len(secretBytes))
	}

	// Parse allowed issuers from CSV
	allowedIssuers := cfg.GetAllowedIssuers()
	if len(allowedIssuers) == 0 {
		return fmt.Errorf("JWT_ALLOWED_ISSUERS must contain at least one valid issuer")
	}

	// Load HS256 key for all allowed issuers (same secret for all)
	for _, issuer := range allowedIssuers {
		keyStore.LoadHS256Key(issuer, "v1", secretBytes)
	}

	// Create validators with clock skew
	clockSkew := time.Duration(cfg.JWTClockSkewSeconds) * time.Second

	// Create resolver with allowed issuers
	resolver := auth.NewKeyResolver(allowedIssuers, []string{cfg.JWTAudience})

	// Register HS256 validator for all allowed issuers
	for _, issuer := range allowedIssuers {
		hs256Validator := auth.NewHS256Validator(keyStore, issuer, clockSkew)
		resolver.RegisterValidator(issuer, hs256Validator)
	}

	log.Info(ctx, "JWT authentication initialized",
		zap.Strings("allowed_issuers", allowedIssuers),
		zap.Int("clock_skew_seconds", cfg.JWTClockSkewSeconds),
	)

	// Initialize the permission engine with its decision cache
	decisionCache, err := authz.NewDecisionCache(cfg.DecisionCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create decision cache: %w", err)
	}
	engine := authz.NewEngine(
		authz.WithCache(decisionCache),
		authz.WithMetrics(metrics),
	)

	// Initialize repositories
	idempotencyRepo := repo.NewIdempotencyRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)
	membershipRepo := repo.NewMembershipRepository(pool)
	orgRepo := repo.NewOrganizationRepository(pool)
	teamRepo := repo.NewTeamRepository(pool)
	equipmentRepo := repo.NewEquipmentRepository(pool)
	workOrderRepo := repo.NewWorkOrderRepository(pool)
	noteRepo := repo.NewNoteRepository(pool)

	// Optional webhook for work-order status changes
	notifier := client.NewWebhookNotifier(cfg.WebhookURL, time.Duration(cfg.WebhookTimeoutSeconds)*time.Second)
	if notifier != nil {
		log.Info(ctx, "work-order webhook enabled", zap.String("url", cfg.WebhookURL))
	}

	// Initialize services
	sessionService := service.NewSessionService(membershipRepo, engine, log)
	orgService := service.NewOrganizationService(orgRepo, auditRepo, sessionService, log)
	teamService := service.NewTeamService(teamRepo, auditRepo, sessionService, log)
	equipmentService := service.NewEquipmentService(equipmentRepo, auditRepo, sessionService, log)
	workOrderService := service.NewWorkOrderService(workOrderRepo, auditRepo, sessionService, notifier, log)
	noteService := service.NewNoteService(noteRepo, equipmentRepo, auditRepo, sessionService, log)
	analyticsService := service.NewAnalyticsService(equipmentRepo, workOrderRepo, sessionService, log)

	// Initialize handlers
	orgHandler := handler.NewOrganizationHandler(orgService)
	teamHandler := handler.NewTeamHandler(teamService)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService)
	workOrderHandler := handler.NewWorkOrderHandler(workOrderService)
	noteHandler := handler.NewNoteHandler(noteService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	permissionsHandler := handler.NewPermissionsHandler(sessionService)
	debugHandler := handler.NewDebugHandler(pool)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewRedisRateLimiter(redisClient, metrics)

	// Build router
	r := buildRouter(RouterDeps{
		Cfg:                 cfg,
		Log:                 log,
		Resolver:            resolver,
		IdempotencyRepo:     idempotencyRepo,
		RateLimiter:         rateLimiter,
		Metrics:             metrics,
		Pool:                pool,
		OrganizationHandler: orgHandler,
		TeamHandler:         teamHandler,
		EquipmentHandler:    equipmentHandler,
		WorkOrderHandler:    workOrderHandler,
		NoteHandler:         noteHandler,
		AnalyticsHandler:    analyticsHandler,
		PermissionsHandler:  permissionsHandler,
		DebugHandler:        debugHandler,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info(ctx, "shutdown signal received, starting graceful shutdown")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}
