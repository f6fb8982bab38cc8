package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCollectionsRefresh invalidates and rewarms cached collections.
	TaskCollectionsRefresh = "collections:refresh"
	// TaskAlertsPurge deletes old resolved alerts.
	TaskAlertsPurge = "alerts:purge"

	// DefaultAlertRetentionDays is how long resolved alerts are kept.
	DefaultAlertRetentionDays = 30
)

// RefreshPayload selects the collections to refresh. Empty means all.
type RefreshPayload struct {
	Collections []string `json:"collections,omitempty"`
}

// PurgePayload configures the alert retention window.
type PurgePayload struct {
	OlderThanDays int `json:"older_than_days"`
}

// NewRefreshTask builds a collections refresh task.
func NewRefreshTask(collections ...string) (*asynq.Task, error) {
	data, err := json.Marshal(RefreshPayload{Collections: collections})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCollectionsRefresh, data), nil
}

// NewPurgeTask builds an alert retention task.
func NewPurgeTask(olderThanDays int) (*asynq.Task, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultAlertRetentionDays
	}
	data, err := json.Marshal(PurgePayload{OlderThanDays: olderThanDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertsPurge, data), nil
}
