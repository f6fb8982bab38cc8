package wifi

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
	endpoint listing.Endpoint[Profile]
}

func NewHandler(logger *slog.Logger, service *Service, limits collection.ParamLimits) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		endpoint: listing.Endpoint[Profile]{
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
	r.Get("/{deviceID}", h.show)
	r.Patch("/{deviceID}", h.update)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "deviceID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	profile, err := h.service.Update(r.Context(), deviceID, patch)
	if err != nil {
		h.logger.Warn("update wifi profile", slog.String("device_id", deviceID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
