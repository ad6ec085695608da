package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditDigest is the task type for the daily audit summary.
	TaskAuditDigest = "audit:digest"
	// TaskCacheWarm is the task type for pre-populating permission caches.
	TaskCacheWarm = "rbac:warm"
)

// AuditDigestPayload selects the day to summarize.
type AuditDigestPayload struct {
	Day time.Time `json:"day"`
}

// CacheWarmPayload bounds how many users the warmup touches.
type CacheWarmPayload struct {
	Limit int `json:"limit"`
}

// NewAuditDigestTask constructs an Asynq task for one day of audit entries.
func NewAuditDigestTask(payload AuditDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditDigest, data), nil
}

// NewCacheWarmTask constructs an Asynq task for cache warmup.
func NewCacheWarmTask(payload CacheWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheWarm, data), nil
}
