package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/meridian-hr/meridian-hr/internal/assignments"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSeatChangeNotify fans out notification of an exclusive-role change.
	TaskSeatChangeNotify = "seats:notify"
	// TaskRoleContextWarmup rebuilds cached role contexts ahead of demand.
	TaskRoleContextWarmup = "rolecache:warmup"
)

// NewSeatChangeNotifyTask constructs the notification task for a seat change.
func NewSeatChangeNotifyTask(notice assignments.SeatChangeNotice) (*asynq.Task, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSeatChangeNotify, data), nil
}

// WarmupPayload bounds how many recently active users a warmup run touches.
type WarmupPayload struct {
	Limit int `json:"limit"`
}

// NewRoleContextWarmupTask constructs a warmup task.
func NewRoleContextWarmupTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(WarmupPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRoleContextWarmup, data), nil
}
