package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-hr/meridian-hr/internal/jobs"
	"github.com/meridian-hr/meridian-hr/internal/rolecache"
)

// ActiveUserSource lists user ids worth warming, most recently active first.
type ActiveUserSource interface {
	ListRecentlyActiveIDs(ctx context.Context, limit int) ([]int64, error)
}

// RoleContextWarmupJob rebuilds cached role contexts for recently active
// users so their first request after a cold cache does not pay the rebuild.
type RoleContextWarmupJob struct {
	contexts *rolecache.Service
	source   ActiveUserSource
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewRoleContextWarmupJob constructs the job.
func NewRoleContextWarmupJob(contexts *rolecache.Service, source ActiveUserSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *RoleContextWarmupJob {
	return &RoleContextWarmupJob{contexts: contexts, source: source, logger: logger, metrics: metrics}
}

// Handle processes TaskRoleContextWarmup tasks.
func (j *RoleContextWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("rolecache_warmup")
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 100
	}
	return tracker.End(j.run(ctx, payload.Limit))
}

func (j *RoleContextWarmupJob) run(ctx context.Context, limit int) error {
	ids, err := j.source.ListRecentlyActiveIDs(ctx, limit)
	if err != nil {
		return err
	}
	warmed := 0
	for _, userID := range ids {
		if _, err := j.contexts.GetUserRoleContext(ctx, userID); err != nil {
			j.logger.Warn("warm role context", slog.Int64("user_id", userID), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.metrics.AddWarmedContexts(warmed)
	j.logger.Info("role context warmup finished", slog.Int("warmed", warmed), slog.Int("candidates", len(ids)))
	return nil
}
