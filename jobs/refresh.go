package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nocdesk/nocdesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Refresher invalidates one cached collection and loads it again.
type Refresher struct {
	Name       string
	Invalidate func(ctx context.Context) error
	Warm       func(ctx context.Context) (int, error)
}

// RefreshJob bumps collection cache versions and rewarms them from the gateway.
type RefreshJob struct {
	Refreshers []Refresher
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewRefreshJob wires dependencies for the refresh handler.
func NewRefreshJob(refreshers []Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshJob {
	return &RefreshJob{Refreshers: refreshers, Logger: logger, Metrics: metrics}
}

// Handle processes collections refresh tasks. Every selected collection is
// attempted; the joined error reports the ones that failed.
func (j *RefreshJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("collections refresh: handler not configured")
	}
	var payload RefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("collections refresh: payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskCollectionsRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()
	var errs []error
	refreshed := 0
	for _, r := range j.Refreshers {
		if len(payload.Collections) > 0 && !slices.Contains(payload.Collections, r.Name) {
			continue
		}
		n, err := j.refresh(ctx, r)
		if err != nil {
			logger.Error("refresh collection", slog.String("collection", r.Name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
			continue
		}
		j.metrics().SetWarmed(r.Name, n)
		refreshed++
	}

	logger.Info("collections refreshed", slog.Int("collections", refreshed), slog.Int("failed", len(errs)), slog.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}

func (j *RefreshJob) refresh(ctx context.Context, r Refresher) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if r.Invalidate != nil {
		if err := r.Invalidate(ctx); err != nil {
			return 0, err
		}
	}
	if r.Warm == nil {
		return 0, nil
	}
	return r.Warm(ctx)
}

func (j *RefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCollectionsRefresh))
	}
	return slog.Default().With(slog.String("job", TaskCollectionsRefresh))
}

func (j *RefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// WarmFunc adapts a collection loader to Refresher.Warm.
func WarmFunc[T any](load func(context.Context) ([]T, error)) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		items, err := load(ctx)
		return len(items), err
	}
}
