// Package dashboard aggregates the headline counters of the NOC overview page.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// StatusCounter reports a collection grouped by status.
type StatusCounter interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
}

// SeverityCounter reports open alerts grouped by severity.
type SeverityCounter interface {
	OpenBySeverity(ctx context.Context) (map[string]int, error)
}

// PendingCounter reports ONUs waiting for authorization.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

// Overview is the payload of the dashboard landing page.
type Overview struct {
	Devices     map[string]int `json:"devices"`
	Customers   map[string]int `json:"customers"`
	OpenAlerts  map[string]int `json:"open_alerts"`
	PendingONUs int            `json:"pending_onus"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type Service struct {
	devices   StatusCounter
	customers StatusCounter
	alerts    SeverityCounter
	pending   PendingCounter
	now       func() time.Time
}

func NewService(devices, customers StatusCounter, alerts SeverityCounter, pending PendingCounter) *Service {
	return &Service{devices: devices, customers: customers, alerts: alerts, pending: pending, now: time.Now}
}

// Overview loads every counter concurrently. The first failure cancels the rest.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.devices.StatusCounts(ctx)
		if err != nil {
			return err
		}
		out.Devices = counts
		return nil
	})

	g.Go(func() error {
		counts, err := s.customers.StatusCounts(ctx)
		if err != nil {
			return err
		}
		out.Customers = counts
		return nil
	})

	g.Go(func() error {
		counts, err := s.alerts.OpenBySeverity(ctx)
		if err != nil {
			return err
		}
		out.OpenAlerts = counts
		return nil
	})

	g.Go(func() error {
		n, err := s.pending.PendingCount(ctx)
		if err != nil {
			return err
		}
		out.PendingONUs = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	out.GeneratedAt = s.now().UTC()
	return out, nil
}
