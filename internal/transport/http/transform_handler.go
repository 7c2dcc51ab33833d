package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "rbmfcli/internal/errors"
	"rbmfcli/internal/middleware"
	"rbmfcli/internal/services"
	api "rbmfcli/pkg/contracts/api/v1"
)

// TransformHandler starts transformation runs
type TransformHandler struct {
	service      TransformServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	timeout      time.Duration
	logger       *slog.Logger
}

// NewTransformHandler creates a transform handler. A positive timeout bounds
// each run; collections already started still complete.
func NewTransformHandler(service TransformServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, timeout time.Duration, logger *slog.Logger) *TransformHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransformHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		timeout:      timeout,
		logger:       logger.With(slog.String("handler", "transform")),
	}
}

// Routes returns the transform routes
func (h *TransformHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "application/json"))
	r.Post("/", h.Transform)
	return r
}

// Transform handles POST /api/v1/transform
func (h *TransformHandler) Transform(w http.ResponseWriter, r *http.Request) {
	var req api.TransformRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	outcome, err := h.service.Transform(ctx, services.TransformOptions{
		Folders: req.Folders,
		Steps:   req.Steps,
		CSV:     req.CSV,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, transformError(err))
		return
	}

	resp := outcome.Response(middleware.GetReqID(r.Context()))
	h.logger.InfoContext(r.Context(), "transform request served",
		slog.Int("succeeded", resp.Succeeded),
		slog.Int("failed", resp.Failed),
		slog.Duration("duration", outcome.Duration))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// transformError maps service errors onto API errors. Anything else is
// left for the error handler to classify.
func transformError(err error) error {
	var invalid *services.InvalidCollectionsError
	switch {
	case errors.Is(err, services.ErrOperationRunning):
		return apierrors.Conflict(err.Error())
	case errors.Is(err, services.ErrNoCollections):
		return apierrors.New(http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &invalid):
		return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), invalid.Invalid)
	default:
		return err
	}
}
