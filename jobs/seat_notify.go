package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-hr/meridian-hr/internal/assignments"
	jobmetrics "github.com/meridian-hr/meridian-hr/internal/jobs"
	"github.com/meridian-hr/meridian-hr/internal/users"
)

// SeatNotifyJob informs affected users after an exclusive-role change.
type SeatNotifyJob struct {
	directory *users.Service
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
}

// NewSeatNotifyJob constructs the job.
func NewSeatNotifyJob(directory *users.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SeatNotifyJob {
	return &SeatNotifyJob{directory: directory, logger: logger, metrics: metrics}
}

// Handle processes TaskSeatChangeNotify tasks.
func (j *SeatNotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("seat_notify")
	var notice assignments.SeatChangeNotice
	if err := json.Unmarshal(t.Payload(), &notice); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	return tracker.End(j.run(ctx, notice))
}

func (j *SeatNotifyJob) run(ctx context.Context, notice assignments.SeatChangeNotice) error {
	recipients := []int64{notice.NewUserID}
	if notice.ReplacedUserID != 0 {
		recipients = append(recipients, notice.ReplacedUserID)
	}
	for _, userID := range recipients {
		user, err := j.directory.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("resolve user %d: %w", userID, err)
		}
		// Delivery channel pending; the structured log is the notification
		// record until the mail transport lands.
		j.logger.Info("seat change notification",
			slog.String("email", user.Email),
			slog.String("role", notice.RoleName),
			slog.String("scope_type", string(notice.ScopeType)),
			slog.Int64("scope_id", notice.ScopeID),
			slog.Bool("replaced", userID == notice.ReplacedUserID),
		)
	}
	return nil
}
