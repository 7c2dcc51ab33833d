package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rbmfcli/internal/dataprocessing"
	apierrors "rbmfcli/internal/errors"
	"rbmfcli/internal/middleware"
	api "rbmfcli/pkg/contracts/api/v1"
)

// CollectionsHandler serves collection listings, project listings and
// validation logs
type CollectionsHandler struct {
	service      TransformServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewCollectionsHandler creates a collections handler
func NewCollectionsHandler(service TransformServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *CollectionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionsHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "collections")),
	}
}

// Routes returns the collection routes
func (h *CollectionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}/log", h.Log)
	return r
}

// List handles GET /api/v1/collections
func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Collections()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.CollectionsResponse{
		DataDir:     h.service.Paths().DataDir,
		Collections: names,
	})
}

// Log handles GET /api/v1/collections/{id}/log. format=text returns the
// log in its file layout.
func (h *CollectionsHandler) Log(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	format, ok := h.validator.ValidateEnum(w, r, "format", []string{"json", "text"}, "json")
	if !ok {
		return
	}
	req := api.CollectionLogRequest{CollectionID: id, Format: format}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	entries, text, err := h.service.CollectionLog(req.CollectionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if req.Format == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if text != "" {
			_, _ = w.Write([]byte(text))
			return
		}
		if err := dataprocessing.RenderEntries(w, entries); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write validation log",
				slog.String("collection", req.CollectionID),
				slog.String("error", err.Error()))
		}
		return
	}

	render.JSON(w, r, api.CollectionLogResponse{
		CollectionID: req.CollectionID,
		Entries:      entries,
		Text:         text,
	})
}

// Projects handles GET /api/v1/projects?folder=...
func (h *CollectionsHandler) Projects(w http.ResponseWriter, r *http.Request) {
	req := api.ProjectsRequest{Folders: r.URL.Query()["folder"]}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	listing, err := h.service.Projects(req.Folders)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, listing)
}
