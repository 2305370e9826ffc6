package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-hr/meridian-hr/internal/app"
	"github.com/meridian-hr/meridian-hr/internal/assignments"
	"github.com/meridian-hr/meridian-hr/internal/audit"
	"github.com/meridian-hr/meridian-hr/internal/auth"
	"github.com/meridian-hr/meridian-hr/internal/authz"
	"github.com/meridian-hr/meridian-hr/internal/observability"
	"github.com/meridian-hr/meridian-hr/internal/orgs"
	"github.com/meridian-hr/meridian-hr/internal/platform/cache"
	"github.com/meridian-hr/meridian-hr/internal/platform/db"
	"github.com/meridian-hr/meridian-hr/internal/rolecache"
	"github.com/meridian-hr/meridian-hr/internal/roles"
	"github.com/meridian-hr/meridian-hr/internal/users"
	"github.com/meridian-hr/meridian-hr/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	usersService := users.NewService(users.NewRepository(pool))
	orgsService := orgs.NewService(orgs.NewRepository(pool))
	rolesService := roles.NewService(roles.NewRepository(pool))
	auditLogger := audit.NewLogger(pool)
	auditService := audit.NewService(pool)

	assignRepo := assignments.NewRepository(pool)
	roleCache := rolecache.NewService(redisClient, assignRepo, orgsService, cfg.RoleCacheTTL, logger)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	assignService := assignments.NewService(
		assignRepo, orgsService, rolesService, usersService, roleCache, auditLogger, jobsClient, logger,
	)

	builder := authz.NewBuilder(roleCache)
	gate := authz.NewGate(rolesService, logger)
	metrics := observability.NewMetrics()
	guard := authz.NewMiddleware(gate, metrics)

	sessionStore := auth.NewSessionStore(redisClient, cfg.SessionTTL)
	authService := auth.NewService(auth.NewRepository(pool), sessionStore, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Sessions:           authService.Sessions,
		AuthHandler:        auth.NewHandler(logger, authService),
		UsersHandler:       users.NewHandler(logger, usersService, guard),
		OrgsHandler:        orgs.NewHandler(logger, orgsService, guard),
		RolesHandler:       roles.NewHandler(logger, rolesService, guard),
		AssignmentsHandler: assignments.NewHandler(logger, assignService, guard),
		AuthzHandler:       authz.NewHandler(logger, builder, gate, guard),
		AuditHandler:       audit.NewHandler(logger, auditService, guard),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
