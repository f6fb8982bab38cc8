package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/platform/cache"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
	"github.com/nocdesk/nocdesk/internal/shared"
)

const CollectionName = "alerts"

// Auditor records operator actions.
type Auditor interface {
	Track(ctx context.Context, log shared.AuditLog)
}

// Service manages the alert log and serves alert views.
type Service struct {
	repo     Repository
	cache    *cache.Collections
	audit    Auditor
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the service. cache and audit may be nil.
func NewService(repo Repository, cache *cache.Collections, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, validate: validator.New(), logger: logger, now: time.Now}
}

func (s *Service) All(ctx context.Context) ([]Alert, error) {
	return cache.Load(ctx, s.cache, CollectionName, s.repo.List)
}

func (s *Service) List(ctx context.Context, state collection.State) (collection.Result[Alert], error) {
	items, err := s.All(ctx)
	if err != nil {
		return collection.Result[Alert]{}, err
	}
	return collection.Compute(items, Schema(), state), nil
}

// OpenBySeverity counts alerts that are not resolved, grouped by severity.
func (s *Service) OpenBySeverity(ctx context.Context) (map[string]int, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	active := collection.Filter(items, func(a Alert) bool { return a.Status != StatusResolved })
	return collection.CountBy(active, severity), nil
}

// Raise records a new open alert.
func (s *Service) Raise(ctx context.Context, req RaiseRequest) (*Alert, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("alerts: %v: %w", err, httpx.ErrValidation)
	}
	now := s.now().UTC()
	alert := Alert{
		ID:         uuid.NewString(),
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		Severity:   req.Severity,
		Category:   req.Category,
		Message:    req.Message,
		Status:     StatusOpen,
		RaisedAt:   now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, alert); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.track(ctx, "alert.raised", &alert)
	return &alert, nil
}

// Acknowledge marks an open alert as acknowledged. Acknowledging twice is a no-op.
func (s *Service) Acknowledge(ctx context.Context, id string) (*Alert, error) {
	return s.transition(ctx, id, StatusAcknowledged)
}

// Resolve closes an alert. Resolving twice is a no-op.
func (s *Service) Resolve(ctx context.Context, id string) (*Alert, error) {
	return s.transition(ctx, id, StatusResolved)
}

func (s *Service) transition(ctx context.Context, id, target string) (*Alert, error) {
	var result *Alert
	changed := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		alert, err := repo.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if alert.Status == target {
			result = alert
			return nil
		}
		if alert.Status == StatusResolved {
			return fmt.Errorf("alerts: %s is resolved: %w", id, httpx.ErrConflict)
		}
		now := s.now().UTC()
		if err := repo.SetStatus(ctx, id, target, now); err != nil {
			return err
		}
		alert.Status = target
		alert.UpdatedAt = now
		result = alert
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.invalidate(ctx)
		s.track(ctx, "alert."+target, result)
	}
	return result, nil
}

// PurgeResolved deletes alerts resolved before the cutoff.
func (s *Service) PurgeResolved(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.repo.PurgeResolved(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
	}
	return n, nil
}

func (s *Service) track(ctx context.Context, action string, a *Alert) {
	if s.audit == nil {
		return
	}
	s.audit.Track(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "alert",
		EntityID: a.ID,
		Meta:     map[string]any{"device_id": a.DeviceID, "severity": a.Severity, "status": a.Status},
	})
}

func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, CollectionName)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate alerts", slog.Any("error", err))
	}
}
