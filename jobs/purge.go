package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nocdesk/nocdesk/internal/jobs"
)

// Purger deletes resolved alerts older than a retention window.
type Purger interface {
	PurgeResolved(ctx context.Context, olderThan time.Duration) (int64, error)
}

// KeyCleaner drops expired idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// idempotencyKeyTTL bounds how long a replayed mutation is still rejected.
const idempotencyKeyTTL = 7 * 24 * time.Hour

// PurgeJob enforces alert retention. Keys is optional.
type PurgeJob struct {
	Alerts  Purger
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewPurgeJob(alerts Purger, keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeJob {
	return &PurgeJob{Alerts: alerts, Keys: keys, Logger: logger, Metrics: metrics}
}

// Handle processes alert purge tasks.
func (j *PurgeJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Alerts == nil {
		return errors.New("alerts purge: handler not configured")
	}
	payload := PurgePayload{OlderThanDays: DefaultAlertRetentionDays}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("alerts purge: payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.OlderThanDays <= 0 {
		return fmt.Errorf("alerts purge: retention must be positive: %w", asynq.SkipRetry)
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskAlertsPurge)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	n, err := j.Alerts.PurgeResolved(ctx, time.Duration(payload.OlderThanDays)*24*time.Hour)
	if err != nil {
		logger.Error("purge resolved alerts", slog.String("job", TaskAlertsPurge), slog.Any("error", err))
		return err
	}
	metrics.AddPurged(n)
	if j.Keys != nil {
		if err := j.Keys.Cleanup(ctx, idempotencyKeyTTL); err != nil {
			logger.Warn("cleanup idempotency keys", slog.String("job", TaskAlertsPurge), slog.Any("error", err))
		}
	}
	logger.Info("purged resolved alerts", slog.String("job", TaskAlertsPurge), slog.Int64("deleted", n), slog.Int("older_than_days", payload.OlderThanDays))
	return nil
}
