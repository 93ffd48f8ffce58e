package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/inspire-hq/attendance/internal/api/docs"
	"github.com/inspire-hq/attendance/internal/api/handler"
	"github.com/inspire-hq/attendance/internal/api/middleware"
	"github.com/inspire-hq/attendance/internal/attendance"
	"github.com/inspire-hq/attendance/internal/audit"
	"github.com/inspire-hq/attendance/internal/cache"
	"github.com/inspire-hq/attendance/internal/config"
	"github.com/inspire-hq/attendance/internal/ratelimit"
	"github.com/inspire-hq/attendance/internal/realtime"
	"github.com/inspire-hq/attendance/internal/repository"
	"github.com/inspire-hq/attendance/internal/validation"
)

type Dependencies struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	hub         *realtime.Hub
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Attendance API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group with authentication
	v1 := r.app.Group("/v1")

	// Only configure authenticated routes if dependencies were provided
	if r.deps != nil {
		// Realtime hub broadcasting attendance events to dashboards
		r.hub = realtime.NewHub()
		go r.hub.Run()

		// Repositories
		tenantRepo := repository.NewTenantRepository(r.deps.DB)
		attendanceRepo := repository.NewAttendanceRepository(r.deps.DB)
		shiftRepo := repository.NewShiftRepository(r.deps.DB)
		policyRepo := repository.NewPolicyRepository(r.deps.DB)
		geofenceRepo := repository.NewGeofenceRepository(r.deps.DB)
		wifiRepo := repository.NewWifiPolicyRepository(r.deps.DB)
		deviceRepo := repository.NewDeviceRepository(r.deps.DB)

		// Auth middleware
		v1.Use(middleware.Auth(tenantRepo))

		// Per-tenant request rate limiting, after auth for tenant context
		r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		v1.Use(r.rateLimiter.Handler())

		// Validation pipeline
		thresholds := validation.Thresholds{
			FaceMatchThreshold: r.deps.Config.FaceMatchThreshold,
			GPSAccuracyMeters:  r.deps.Config.GPSAccuracyMeters,
			ClockSkewSeconds:   r.deps.Config.ClockSkewSeconds,
			MaxOfflinePerShift: r.deps.Config.MaxOfflinePerShift,
		}
		registry := validation.NewRegistry(geofenceRepo, wifiRepo, deviceRepo, attendanceRepo, thresholds)

		// Policies load on every clock event; keep them in the PG cache
		pgCache := cache.NewPGCache(r.deps.DB)
		policyCache := cache.NewPolicyCache(policyRepo, pgCache, 5*time.Minute, r.logger)

		// Clock event service
		auditLogger := audit.NewSlogLogger(r.logger)
		publisher := realtime.NewHubPublisher(r.hub)
		clockService := attendance.NewService(
			attendanceRepo,
			shiftRepo,
			policyCache,
			registry,
			publisher,
			auditLogger,
			r.logger,
		)

		// Offline-sync submission throttle (PG sliding window)
		syncLimiter := ratelimit.NewLimiter(r.deps.DB, r.deps.Config.SyncRateWindow)

		// Attendance routes
		attendanceHandler := handler.NewAttendanceHandler(
			clockService,
			attendanceRepo,
			syncLimiter,
			r.deps.Config.SyncRateLimit,
			r.logger,
		)
		v1.Post("/attendance/clock-in", attendanceHandler.ClockIn)
		v1.Post("/attendance/clock-out", attendanceHandler.ClockOut)
		v1.Post("/attendance/sync-offline", attendanceHandler.SyncOffline)
		v1.Get("/attendance/:id", attendanceHandler.GetRecord)

		// WebSocket endpoint
		v1.Get("/ws", realtime.UpgradeMiddleware(), realtime.Handler(r.hub))

		// Periodic cleanup of expired rate limit counters and cache rows
		go r.cleanupExpiredRows(syncLimiter, pgCache)
	}
}

func (r *Router) cleanupExpiredRows(limiter *ratelimit.Limiter, pgCache *cache.PGCache) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		deleted, err := limiter.CleanupExpired(ctx)
		if err != nil {
			r.logger.Warn("rate limit cleanup failed", slog.String("error", err.Error()))
		} else if deleted > 0 {
			r.logger.Debug("rate limit counters cleaned", slog.Int64("deleted", deleted))
		}

		evicted, err := pgCache.CleanupExpired(ctx)
		if err != nil {
			r.logger.Warn("cache cleanup failed", slog.String("error", err.Error()))
		} else if evicted > 0 {
			r.logger.Debug("cache entries evicted", slog.Int64("deleted", evicted))
		}

		cancel()
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.Shutdown()
}
