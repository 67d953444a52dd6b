package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecobazaar/auth-service/internal/api/handler"
	"github.com/ecobazaar/auth-service/internal/core/service"
	mongodb "github.com/ecobazaar/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/ecobazaar/auth-service/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The audit sink is created by the caller so its workers share the process
// lifecycle, not the router's.
func NewRouter(db *mongo.Database, rdb *redis.Client, audit service.AuditSink, bcryptCost int, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("ecobazaar_auth"))

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db)
	identityCache := redisdb.NewIdentityCache(rdb)
	authService := service.NewAuthService(accountRepo, identityCache, audit, bcryptCost, log)
	authHandler := handler.NewAuthHandler(authService)

	// --- Auth routes ---
	e.POST("/api/auth/signup", authHandler.Signup)
	e.POST("/api/auth/login", authHandler.Login)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
