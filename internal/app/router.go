package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nocdesk/nocdesk/internal/observability"
)

// Mounter is implemented by every feature handler.
type Mounter interface {
	MountRoutes(r chi.Router)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	CustomersHandler    Mounter
	DevicesHandler      Mounter
	ProvisioningHandler Mounter
	AlertsHandler       Mounter
	WiFiHandler         Mounter
	DashboardHandler    Mounter
	JobHandler          Mounter

	// Health reports readiness of backing stores; nil means always healthy.
	Health func(r *http.Request) error
}

// NewRouter constructs the chi.Router with NOCDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Health != nil {
			if err := params.Health(r); err != nil {
				params.Logger.Warn("health check", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	apiKeyHash := ""
	if params.Config != nil {
		apiKeyHash = params.Config.APIKeyHash
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APIKeyAuth(apiKeyHash, params.Logger))
		r.Use(Operator)
		mount(r, "/customers", params.CustomersHandler)
		mount(r, "/devices", params.DevicesHandler)
		mount(r, "/onus", params.ProvisioningHandler)
		mount(r, "/alerts", params.AlertsHandler)
		mount(r, "/wifi", params.WiFiHandler)
		mount(r, "/overview", params.DashboardHandler)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func mount(r chi.Router, pattern string, h Mounter) {
	if h == nil {
		return
	}
	r.Route(pattern, h.MountRoutes)
}
