package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	gqlapi "github.com/auragate/parking-backend/internal/api/graphql"
	"github.com/auragate/parking-backend/internal/api/handler"
	"github.com/auragate/parking-backend/internal/api/middleware"
	"github.com/auragate/parking-backend/internal/core/domain"
	"github.com/auragate/parking-backend/internal/core/ports"
	"github.com/auragate/parking-backend/internal/core/service"
	"github.com/auragate/parking-backend/internal/infrastructure/config"
	mongodb "github.com/auragate/parking-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/auragate/parking-backend/internal/infrastructure/db/redis"
	"github.com/auragate/parking-backend/internal/infrastructure/recognition"
)

// NewRouter builds the Echo instance with the GraphQL endpoint, health
// probes and the Prometheus scrape route registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, cleaner ports.GuestCleaner, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("auragate"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	sessionRepo := mongodb.NewSessionRepository(db)
	statsRepo := mongodb.NewStatsRepository(db)

	recognizer := recognition.NewClient(
		cfg.Recognition.BaseURL,
		time.Duration(cfg.Recognition.TimeoutSeconds)*time.Second,
		log,
	)
	entryLock := redisdb.NewPlateLock(rdb)

	policy := domain.SlotPolicy{
		IncrementGuestOnly: cfg.Parking.IncrementGuestOnly,
		DecrementGuestOnly: cfg.Parking.DecrementGuestOnly,
	}
	sessionService := service.NewSessionService(
		sessionRepo, userRepo, statsRepo, recognizer,
		cleaner, entryLock, policy, cfg.Parking.MatchThreshold, log,
	)
	userService := service.NewUserService(userRepo, recognizer, cfg.JWTSecret, 24*time.Hour, log)
	statsService := service.NewStatsService(sessionRepo, userRepo, cfg.Parking.TotalCarSlots, cfg.Parking.TotalBikeSlots, log)

	// --- GraphQL endpoint ---
	resolver := gqlapi.NewResolver(sessionService, userService, statsService, log)
	gqlHandler, err := gqlapi.NewHandler(resolver, log)
	if err != nil {
		return nil, err
	}
	e.POST("/graphql", gqlHandler.Execute, middleware.Auth(cfg.JWTSecret))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Prometheus scrape endpoint ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
