package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/praxis-pm/praxis/internal/app"
	"github.com/praxis-pm/praxis/internal/audit"
	"github.com/praxis-pm/praxis/internal/auth"
	"github.com/praxis-pm/praxis/internal/observability"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/platform/cache"
	"github.com/praxis-pm/praxis/internal/platform/db"
	"github.com/praxis-pm/praxis/internal/rbac"
	"github.com/praxis-pm/praxis/internal/roles"
	"github.com/praxis-pm/praxis/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
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

	validate := validator.New()
	metrics := observability.NewMetrics()

	decisionCache := rbac.NewCache(cfg.CacheSize, cfg.CacheTTL)
	store := rbac.NewPGStore(pool)

	permissionRegistry := permissions.NewRegistry(permissions.NewRepository(pool), decisionCache)
	roleRegistry := roles.NewRegistry(roles.NewRepository(pool), decisionCache)
	userService := users.NewService(users.NewRepository(pool))
	auditService := audit.NewService(audit.NewRepository(pool))

	verifier := rbac.NewVerifier(store, permissionRegistry, decisionCache)
	grantService := rbac.NewGrantService(store, roleRegistry, permissionRegistry, verifier, logger)
	assignmentService := rbac.NewAssignmentService(store, userService, roleRegistry, verifier, logger)
	guard := rbac.NewGuard(verifier, userService, metrics)
	rbacMiddleware := rbac.Middleware{Guard: guard, Logger: logger}

	tokenManager := auth.NewTokenManager(redisClient, cfg.TokenTTL)
	authService := auth.NewService(userService, tokenManager, logger)
	authenticator := auth.NewAuthenticator(tokenManager, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      authenticator,
		AuthHandler:        auth.NewHandler(logger, authService, userService, validate, authenticator),
		UsersHandler:       users.NewHandler(logger, userService, validate, rbacMiddleware),
		RolesHandler:       roles.NewHandler(logger, roleRegistry, validate, rbacMiddleware),
		PermissionsHandler: permissions.NewHandler(logger, permissionRegistry, validate, rbacMiddleware),
		RBACHandler:        rbac.NewHandler(logger, grantService, assignmentService, verifier, userService, rbacMiddleware),
		AuditHandler:       audit.NewHandler(logger, auditService, rbacMiddleware),
		Pool:               pool,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
	logger.Info("stopped")
}
