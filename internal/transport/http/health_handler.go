package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	api "rbmfcli/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthServiceInterface
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthServiceInterface, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Liveness handles GET /healthz. Runtime details are included with
// verbose=true.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	var req api.HealthCheckRequest
	req.Verbose, _ = strconv.ParseBool(r.URL.Query().Get("verbose"))

	status := h.service.LivenessCheck(r.Context())
	if !req.Verbose {
		status.Runtime = nil
	}
	render.JSON(w, r, status)
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.service.ReadinessCheck(r.Context())
	if !status.Ready() {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Version handles GET /api/v1/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
