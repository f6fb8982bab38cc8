package alerts

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
	endpoint listing.Endpoint[Alert]
}

func NewHandler(logger *slog.Logger, service *Service, limits collection.ParamLimits) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		endpoint: listing.Endpoint[Alert]{
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
	r.Post("/", h.raise)
	r.Post("/{id}/ack", h.acknowledge)
	r.Post("/{id}/resolve", h.resolve)
}

func (h *Handler) raise(w http.ResponseWriter, r *http.Request) {
	var req RaiseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	alert, err := h.service.Raise(r.Context(), req)
	if err != nil {
		h.logger.Error("raise alert", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, alert)
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alert, err := h.service.Acknowledge(r.Context(), id)
	if err != nil {
		h.logger.Warn("acknowledge alert", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alert)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alert, err := h.service.Resolve(r.Context(), id)
	if err != nil {
		h.logger.Warn("resolve alert", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alert)
}
