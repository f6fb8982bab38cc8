package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nocdesk/nocdesk/internal/alerts"
	"github.com/nocdesk/nocdesk/internal/customers"
	"github.com/nocdesk/nocdesk/internal/dashboard"
	"github.com/nocdesk/nocdesk/internal/devices"
	"github.com/nocdesk/nocdesk/internal/gateway"
	"github.com/nocdesk/nocdesk/internal/observability"
	"github.com/nocdesk/nocdesk/internal/platform/cache"
	"github.com/nocdesk/nocdesk/internal/provisioning"
	"github.com/nocdesk/nocdesk/internal/shared"
	"github.com/nocdesk/nocdesk/internal/wifi"
	"github.com/nocdesk/nocdesk/jobs"
)

// Deps are the shared clients both binaries build services on.
type Deps struct {
	Config  *Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

// Services holds every domain service.
type Services struct {
	Cache        *cache.Collections
	Keys         *shared.IdempotencyStore
	Audit        *shared.AuditLogger
	Customers    *customers.Service
	Devices      *devices.Service
	Provisioning *provisioning.Service
	Alerts       *alerts.Service
	WiFi         *wifi.Service
	Dashboard    *dashboard.Service
}

// NewServices builds the gateway client and the domain services.
func NewServices(deps Deps) (*Services, error) {
	cfg := deps.Config
	gw, err := gateway.New(gateway.Config{
		BaseURL:  cfg.GatewayURL,
		Token:    cfg.GatewayToken,
		Timeout:  cfg.GatewayTimeout,
		Retries:  cfg.GatewayRetries,
		RPS:      cfg.GatewayRPS,
		Logger:   deps.Logger,
		Observer: deps.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("app: gateway: %w", err)
	}

	var collections *cache.Collections
	if deps.Redis != nil {
		collections = cache.NewCollections(deps.Redis, cfg.CacheTTL, deps.Logger)
	}
	keys := shared.NewIdempotencyStore(deps.Pool)
	audit := shared.NewAuditLogger(deps.Pool, deps.Logger)

	s := &Services{Cache: collections, Keys: keys, Audit: audit}
	s.Customers = customers.NewService(customers.GatewaySource(gw), collections)
	s.Devices = devices.NewService(devices.GatewaySource(gw), collections)
	s.Alerts = alerts.NewService(alerts.NewRepository(deps.Pool), collections, audit, deps.Logger)
	s.WiFi = wifi.NewService(wifi.GatewaySource(gw), collections, gw, audit, deps.Logger)
	s.Provisioning = provisioning.NewService(provisioning.ServiceConfig{
		Source:  provisioning.GatewaySource(gw),
		Cache:   collections,
		Mutator: gw,
		Claims:  keys,
		Related: []provisioning.Invalidator{s.Devices, s.Customers},
		Audit:   audit,
		Logger:  deps.Logger,
	})
	s.Dashboard = dashboard.NewService(s.Devices, s.Customers, s.Alerts, s.Provisioning)
	return s, nil
}

// Refreshers lists the collections the refresh job keeps warm.
func (s *Services) Refreshers() []jobs.Refresher {
	return []jobs.Refresher{
		{Name: customers.CollectionName, Invalidate: s.Customers.Invalidate, Warm: jobs.WarmFunc(s.Customers.All)},
		{Name: devices.CollectionName, Invalidate: s.Devices.Invalidate, Warm: jobs.WarmFunc(s.Devices.All)},
		{Name: provisioning.CollectionName, Invalidate: s.Provisioning.Invalidate, Warm: jobs.WarmFunc(s.Provisioning.All)},
		{Name: wifi.CollectionName, Invalidate: s.WiFi.Invalidate, Warm: jobs.WarmFunc(s.WiFi.All)},
		{Name: alerts.CollectionName, Invalidate: s.Alerts.Invalidate, Warm: jobs.WarmFunc(s.Alerts.All)},
	}
}

// Handlers builds the HTTP handlers for the router.
func (s *Services) Handlers(logger *slog.Logger, cfg *Config, params RouterParams) RouterParams {
	limits := cfg.ListLimits()
	params.CustomersHandler = customers.NewHandler(logger, s.Customers, limits)
	params.DevicesHandler = devices.NewHandler(logger, s.Devices, limits)
	params.ProvisioningHandler = provisioning.NewHandler(logger, s.Provisioning, limits)
	params.AlertsHandler = alerts.NewHandler(logger, s.Alerts, limits)
	params.WiFiHandler = wifi.NewHandler(logger, s.WiFi, limits)
	params.DashboardHandler = dashboard.NewHandler(logger, s.Dashboard)
	return params
}

// Ping checks the backing stores for /healthz.
func (d Deps) Ping(ctx context.Context) error {
	if d.Pool != nil {
		if err := d.Pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
