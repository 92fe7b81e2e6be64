package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"trustrent/internal/audit"
	"trustrent/internal/auth/device"
	authhandler "trustrent/internal/auth/handler"
	authmetrics "trustrent/internal/auth/metrics"
	authservice "trustrent/internal/auth/service"
	"trustrent/internal/auth/store/session"
	httpapi "trustrent/internal/http"
	identityhandler "trustrent/internal/identity/handler"
	identitymetrics "trustrent/internal/identity/metrics"
	identityservice "trustrent/internal/identity/service"
	"trustrent/internal/identity/store"
	"trustrent/internal/identity/store/user"
	jwttoken "trustrent/internal/jwt_token"
	"trustrent/internal/platform/config"
	"trustrent/internal/platform/httpserver"
	"trustrent/internal/platform/logger"
	platformmetrics "trustrent/internal/platform/metrics"
	platformredis "trustrent/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	// User store: Postgres when configured, in-memory otherwise.
	var users identityservice.UserStore
	if cfg.Database.URL != "" {
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		// Idempotent DDL; safe on every boot.
		if _, err := db.ExecContext(ctx, user.Schema); err != nil {
			log.Error("apply schema", "error", err)
			os.Exit(1)
		}
		users = user.NewPostgres(db)
		log.Info("using postgres user store")
	} else {
		users = user.NewInMemory()
		log.Warn("DATABASE_URL not set; using in-memory user store")
	}

	// Session store: Redis when configured, in-memory otherwise.
	var sessions authservice.SessionStore
	var health func(ctx context.Context) error
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedis(redisClient.Client)
		health = redisClient.Health
		log.Info("using redis session store")
	} else {
		sessions = session.New()
		log.Warn("REDIS_URL not set; using in-memory session store")
	}

	if err := store.SeedBootstrapAdmin(ctx, users, cfg.Bootstrap, log); err != nil {
		log.Error("seed bootstrap admin", "error", err)
		os.Exit(1)
	}

	auditor := audit.NewSlogPublisher(log)
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	identitySvc := identityservice.NewService(users,
		identityservice.WithLogger(log),
		identityservice.WithAudit(auditor),
		identityservice.WithMetrics(identitymetrics.New()),
	)
	authSvc := authservice.NewService(users, sessions, jwtService,
		authservice.WithLogger(log),
		authservice.WithAudit(auditor),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithSessionTTL(cfg.Server.SessionTTL),
		authservice.WithDeviceService(device.NewService(cfg.DeviceFingerprinting)),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:      log,
		Identity:    identityhandler.New(identitySvc, log),
		Auth:        authhandler.New(authSvc, log),
		Validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		HTTPMetrics: platformmetrics.New(),
		Health:      health,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting trustrent", "addr", cfg.Server.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
