package api

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gridpoint/auth-api/internal/api/handler"
	"github.com/gridpoint/auth-api/internal/api/middleware"
	"github.com/gridpoint/auth-api/internal/core/ports"
	"github.com/gridpoint/auth-api/internal/infrastructure/http/handlers"
)

// Options carries everything the router needs beyond the auth service
// itself.
type Options struct {
	Log            zerolog.Logger
	CORSOrigin     string
	SecureCookies  bool
	RememberMaxAge time.Duration

	// Store handles, used only by the readiness probe.
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	Mongo    *mongo.Database
}

// NewRouter builds and returns the Echo instance with all routes
// registered.
func NewRouter(auth ports.AuthService, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("auth_http"))
	// Cookie auth across origins needs credentials enabled; the origin list
	// is deliberately explicit, never "*".
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{opts.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}))

	authHandler := handler.NewAuthHandler(auth, handler.CookieOptions{
		Secure:         opts.SecureCookies,
		RememberMaxAge: opts.RememberMaxAge,
	})
	session := middleware.Session(auth)

	// --- Auth routes ---
	authGroup := e.Group("/api/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/register", authHandler.Register, session)
	authGroup.POST("/logout", authHandler.Logout, session)
	authGroup.GET("/status", authHandler.Status, session)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	e.GET("/api/health", healthHandler.Liveness)
	if opts.Postgres != nil && opts.Redis != nil && opts.Mongo != nil {
		readyHandler := handlers.NewHealthDependenciesHandler(opts.Postgres, opts.Redis, opts.Mongo)
		e.GET("/api/health/ready", readyHandler.Readiness)
	}

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
