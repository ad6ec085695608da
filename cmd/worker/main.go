package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/praxis-pm/praxis/internal/app"
	"github.com/praxis-pm/praxis/internal/audit"
	jobmetrics "github.com/praxis-pm/praxis/internal/jobs"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/platform/db"
	"github.com/praxis-pm/praxis/internal/rbac"
	"github.com/praxis-pm/praxis/internal/users"
	"github.com/praxis-pm/praxis/jobs"
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

	auditService := audit.NewService(audit.NewRepository(pool))
	userService := users.NewService(users.NewRepository(pool))
	permissionRegistry := permissions.NewRegistry(permissions.NewRepository(pool), nil)
	verifier := rbac.NewVerifier(rbac.NewPGStore(pool), permissionRegistry, rbac.NewCache(cfg.CacheSize, cfg.CacheTTL))

	metrics := jobmetrics.NewMetrics(nil)
	digestJob := jobs.NewAuditDigestJob(auditService, logger, metrics)
	warmJob := jobs.NewCacheWarmJob(userService, verifier, logger, metrics)

	digestTask, err := jobs.NewAuditDigestTask(jobs.AuditDigestPayload{})
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}
	warmTask, err := jobs.NewCacheWarmTask(jobs.CacheWarmPayload{Limit: 500})
	if err != nil {
		logger.Error("build warm task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditDigest, Handler: digestJob.Handle},
			{Type: jobs.TaskCacheWarm, Handler: warmJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "10 0 * * *", Task: digestTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
			{Spec: "*/30 * * * *", Task: warmTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
