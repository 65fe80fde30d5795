package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "revforecast/internal/errors"
	"revforecast/internal/middleware"
	api "revforecast/pkg/contracts/api/v1"
)

// ForecastHandler serves forecast runs
type ForecastHandler struct {
	service      ForecastServiceInterface
	validator    *middleware.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ForecastHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastHandler{
		service:      service,
		validator:    middleware.NewRequestValidator(logger),
		logger:       logger.With(slog.String("component", "forecast_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the forecast routes
func (h *ForecastHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(middleware.ContentTypeValidator("application/json")).Post("/forecast", h.RunForecast)
	r.Get("/models", h.ListModels)

	return r
}

// RunForecast handles POST /api/v1/forecast
func (h *ForecastHandler) RunForecast(w http.ResponseWriter, r *http.Request) {
	var req api.ForecastRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "forecast served",
		slog.String("run_id", resp.RunID),
		slog.String("model", resp.Model),
		slog.Float64("mae", resp.Metrics.Metrics.MAE),
		slog.Int("report_files", len(resp.ReportFiles)))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// ListModels handles GET /api/v1/models
func (h *ForecastHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Models())
}
