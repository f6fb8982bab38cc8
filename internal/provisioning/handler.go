package provisioning

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/listing"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	endpoint listing.Endpoint[PendingONU]
}

func NewHandler(logger *slog.Logger, service *Service, limits collection.ParamLimits) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		endpoint: listing.Endpoint[PendingONU]{
			Name:    CollectionName,
			Schema:  Schema(),
			Load:    service.All,
			Limits:  limits,
			Logger:  logger,
			Columns: exportColumns(),
		},
	}
}

// MountRoutes registers provisioning routes under /onus.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pending", h.endpoint.ServeList)
	r.Get("/pending/export.csv", h.endpoint.ServeExport)
	r.Post("/{serial}/authorize", h.authorize)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	var req AuthorizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	onu, err := h.service.Authorize(r.Context(), serial, req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.logger.Error("authorize onu", slog.String("serial", serial), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, onu)
}
