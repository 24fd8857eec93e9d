package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridpoint/auth-api/internal/api"
	"github.com/gridpoint/auth-api/internal/api/metrics"
	"github.com/gridpoint/auth-api/internal/core/service"
	"github.com/gridpoint/auth-api/internal/infrastructure/config"
	mongodb "github.com/gridpoint/auth-api/internal/infrastructure/db/mongo"
	"github.com/gridpoint/auth-api/internal/infrastructure/db/postgres"
	redisdb "github.com/gridpoint/auth-api/internal/infrastructure/db/redis"
	"github.com/gridpoint/auth-api/internal/infrastructure/queue"
	"github.com/gridpoint/auth-api/internal/pkg/password"
	"github.com/gridpoint/auth-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Backing stores ---
	if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	mongoClient, mongoDB, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	// --- Core wiring ---
	auditRepo := mongodb.NewAuditRepository(mongoDB)
	dispatcher := queue.NewDispatcher(0, auditRepo, log)
	dispatcher.Start()

	users := postgres.NewUserRepository(pool)
	sessions := redisdb.NewSessionStore(rdb, cfg.SessionTTL, cfg.RememberTTL)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	authService := service.NewAuthService(users, sessions, hasher, dispatcher, metrics.NewServiceRecorder(), log)

	if cfg.Bootstrap.Enabled() {
		if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("bootstrap admin seeding failed")
		}
	}

	// --- HTTP server ---
	e := api.NewRouter(authService, api.Options{
		Log:            log,
		CORSOrigin:     cfg.CORSOrigin,
		SecureCookies:  cfg.Env == "production",
		RememberMaxAge: cfg.RememberTTL,
		Postgres:       pool,
		Redis:          rdb,
		Mongo:          mongoDB,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// No new requests past this point; flush buffered audit entries before
	// the stores disconnect.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	dispatcher.Stop(drainCtx)
}
