package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/praxis-pm/praxis/internal/audit"
	jobmetrics "github.com/praxis-pm/praxis/internal/jobs"
)

// AuditDigestJob summarizes one day of authorization mutations into the log.
// The audit table itself is never modified.
type AuditDigestJob struct {
	Audit   *audit.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditDigestJob wires dependencies for the digest handler.
func NewAuditDigestJob(auditSvc *audit.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditDigestJob {
	return &AuditDigestJob{
		Audit:   auditSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes audit digest tasks.
func (j *AuditDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("audit digest: handler not configured")
	}
	tracker := j.Metrics.Track("audit_digest")
	var payload AuditDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	day := payload.Day
	if day.IsZero() {
		day = j.clock().AddDate(0, 0, -1)
	}

	counts, err := j.Audit.Digest(ctx, day)
	if err != nil {
		return tracker.End(err)
	}
	attrs := make([]any, 0, len(counts)+1)
	attrs = append(attrs, slog.String("day", day.Format(time.DateOnly)))
	for action, n := range counts {
		attrs = append(attrs, slog.Int(string(action), n))
	}
	j.Logger.Info("audit digest", attrs...)
	return tracker.End(nil)
}
