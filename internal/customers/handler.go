package customers

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
	endpoint listing.Endpoint[Customer]
}

func NewHandler(logger *slog.Logger, service *Service, limits collection.ParamLimits) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		endpoint: listing.Endpoint[Customer]{
			Name:    CollectionName,
			Schema:  Schema(),
			Load:    service.All,
			Limits:  limits,
			Logger:  logger,
			Columns: exportColumns(),
		},
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.endpoint.ServeList)
	r.Get("/export.csv", h.endpoint.ServeExport)
	r.Get("/{id}", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Warn("get customer", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}
