package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/praxis-pm/praxis/internal/jobs"
	"github.com/praxis-pm/praxis/internal/rbac"
	"github.com/praxis-pm/praxis/internal/users"
)

// CacheWarmJob pre-populates effective permission sets so the first checks
// after a deploy do not all fall through to Postgres.
type CacheWarmJob struct {
	Users    *users.Service
	Verifier *rbac.Verifier
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewCacheWarmJob wires dependencies for the warmup handler.
func NewCacheWarmJob(userSvc *users.Service, verifier *rbac.Verifier, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmJob {
	return &CacheWarmJob{Users: userSvc, Verifier: verifier, Logger: logger, Metrics: metrics}
}

// Handle processes cache warmup tasks.
func (j *CacheWarmJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("cache warm: handler not configured")
	}
	tracker := j.Metrics.Track("cache_warm")
	var payload CacheWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = 500
	}

	list, err := j.Users.FindAll(ctx)
	if err != nil {
		return tracker.End(err)
	}
	warmed := 0
	for _, u := range list {
		if warmed >= limit {
			break
		}
		if _, err := j.Verifier.GetUserPermissions(ctx, u.ID); err != nil {
			j.Logger.Warn("cache warm user", slog.String("user_id", u.ID.String()), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.Logger.Info("cache warm complete", slog.Int("warmed", warmed))
	return tracker.End(nil)
}
