package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/internal/config"
	apierrors "rbmfcli/internal/errors"
	"rbmfcli/internal/exporter"
	"rbmfcli/internal/files"
	"rbmfcli/internal/mapping"
	"rbmfcli/internal/middleware"
	"rbmfcli/internal/services"
	api "rbmfcli/pkg/contracts/api/v1"
	"rbmfcli/pkg/contracts/domain"
)

type fakeTransformService struct {
	transformFunc func(ctx context.Context, opts services.TransformOptions) (*services.TransformOutcome, error)
	collections   []string
	entries       []domain.DiscrepancyEntry
	text          string
	logErr        error
	lastOpts      services.TransformOptions
	lastFolders   []string
}

func (f *fakeTransformService) Transform(ctx context.Context, opts services.TransformOptions) (*services.TransformOutcome, error) {
	f.lastOpts = opts
	return f.transformFunc(ctx, opts)
}

func (f *fakeTransformService) Collections() ([]string, error) { return f.collections, nil }

func (f *fakeTransformService) CollectionLog(string) ([]domain.DiscrepancyEntry, string, error) {
	return f.entries, f.text, f.logErr
}

func (f *fakeTransformService) Projects(folders []string) (*mapping.ProjectListing, error) {
	f.lastFolders = folders
	return &mapping.ProjectListing{TotalProjects: 1, Folders: map[string]mapping.FolderProjects{}}, nil
}

func (f *fakeTransformService) Paths() *config.Paths { return &config.Paths{DataDir: "/data"} }

type fakeHealthService struct{ ready bool }

func (f fakeHealthService) LivenessCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "alive", Runtime: map[string]interface{}{"goroutines": 1}}
}

func (f fakeHealthService) ReadinessCheck(context.Context) services.HealthStatus {
	if f.ready {
		return services.HealthStatus{Status: "ready"}
	}
	return services.HealthStatus{Status: "not_ready"}
}

func (f fakeHealthService) Version() map[string]interface{} {
	return map[string]interface{}{"version": "test"}
}

func newTestRouter(svc TransformServiceInterface, health HealthServiceInterface) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eh := apierrors.NewErrorHandler(logger, false)
	v := middleware.NewValidator(logger, eh)

	transform := NewTransformHandler(svc, v, eh, 0, logger)
	collections := NewCollectionsHandler(svc, v, eh, logger)
	h := NewHealthHandler(health, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/transform", transform.Routes())
		r.Mount("/collections", collections.Routes())
		r.Get("/projects", collections.Projects)
		r.Get("/version", h.Version)
	})
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTransformHandler(t *testing.T) {
	svc := &fakeTransformService{
		transformFunc: func(context.Context, services.TransformOptions) (*services.TransformOutcome, error) {
			return &services.TransformOutcome{
				Mode: exporter.ModeFinal,
				Results: map[string]*domain.CollectionResult{
					"1 INO": {CollectionID: "1 INO"},
				},
				Report: exporter.NewReport(exporter.ModeFinal),
			}, nil
		},
	}
	router := newTestRouter(svc, fakeHealthService{ready: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transform", strings.NewReader(`{"folders":["1 INO"],"steps":true,"csv":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, services.TransformOptions{Folders: []string{"1 INO"}, Steps: true, CSV: true}, svc.lastOpts)

	var resp api.TransformResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-42", resp.TraceID)
	assert.Equal(t, 1, resp.Succeeded)
	require.Len(t, resp.Collections, 1)
	assert.Equal(t, "completed", resp.Collections[0].Status)
}

func TestTransformHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "already running",
			body:       `{}`,
			err:        services.ErrOperationRunning,
			wantStatus: http.StatusConflict,
			wantType:   apierrors.TypeConflict,
		},
		{
			name:       "no collections",
			body:       `{}`,
			err:        services.ErrNoCollections,
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeNotFound,
		},
		{
			name: "unknown collections",
			body: `{"folders":["1 IN"]}`,
			err: &services.InvalidCollectionsError{Invalid: []files.InvalidCollection{
				{Name: "1 IN", Suggestions: []string{"1 INO"}},
			}},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "invalid folder name",
			body:       `{"folders":["../secret"]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeTransformService{
				transformFunc: func(context.Context, services.TransformOptions) (*services.TransformOutcome, error) {
					called = true
					return nil, tt.err
				},
			}
			rec := postJSON(newTestRouter(svc, fakeHealthService{}), "/api/v1/transform", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			problem := decodeBody(t, rec)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, tt.err != nil, called)
		})
	}
}

func TestTransformHandlerSuggestions(t *testing.T) {
	svc := &fakeTransformService{
		transformFunc: func(context.Context, services.TransformOptions) (*services.TransformOutcome, error) {
			return nil, &services.InvalidCollectionsError{Invalid: []files.InvalidCollection{
				{Name: "1 IN", Suggestions: []string{"1 INO"}},
			}}
		},
	}
	rec := postJSON(newTestRouter(svc, fakeHealthService{}), "/api/v1/transform", `{"folders":["1 IN"]}`)

	problem := decodeBody(t, rec)
	assert.Contains(t, problem["detail"], "did you mean 1 INO?")
	assert.NotNil(t, problem["details"])
}

func TestTransformHandlerRejectsForm(t *testing.T) {
	svc := &fakeTransformService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transform", strings.NewReader("folders=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newTestRouter(svc, fakeHealthService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCollectionsList(t *testing.T) {
	svc := &fakeTransformService{collections: []string{"1 INO", "2 PHY"}}
	rec := httptest.NewRecorder()
	newTestRouter(svc, fakeHealthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.CollectionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/data", resp.DataDir)
	assert.Equal(t, []string{"1 INO", "2 PHY"}, resp.Collections)
}

func TestCollectionLog(t *testing.T) {
	entry := domain.DiscrepancyEntry{
		File:          "a.xlsx",
		EntityID:      "IND1",
		Field:         domain.FieldPrimaryOutcomeArea,
		Values:        []domain.QuarterValue{{Quarter: 1, Value: "Energy"}, {Quarter: 2, Value: "Water"}},
		ChosenQuarter: 1,
		Resolution:    "Energy",
		HalfYear:      domain.HalfYear{Year: 2024, Half: 1},
		Locator:       "RBMF!C2, RBMF!C3",
	}

	t.Run("json from memory", func(t *testing.T) {
		svc := &fakeTransformService{entries: []domain.DiscrepancyEntry{entry}}
		rec := httptest.NewRecorder()
		newTestRouter(svc, fakeHealthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/1%20INO/log", nil))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp api.CollectionLogResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "1 INO", resp.CollectionID)
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, "RBMF!C2, RBMF!C3", resp.Entries[0].Locator)
	})

	t.Run("text rendered from entries", func(t *testing.T) {
		svc := &fakeTransformService{entries: []domain.DiscrepancyEntry{entry}}
		rec := httptest.NewRecorder()
		newTestRouter(svc, fakeHealthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/1%20INO/log?format=text", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "File: a.xlsx\n")
		assert.Contains(t, rec.Body.String(), "Details: Q1=Energy, Q2=Water for entity IND1\n")
		assert.Contains(t, rec.Body.String(), "Row/Column: RBMF!C2, RBMF!C3\n")
	})

	t.Run("text from file", func(t *testing.T) {
		svc := &fakeTransformService{text: "File: b.xlsx\n"}
		rec := httptest.NewRecorder()
		newTestRouter(svc, fakeHealthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/1%20INO/log?format=text", nil))

		assert.Equal(t, "File: b.xlsx\n", rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeTransformService{logErr: apierrors.NewAppError(apierrors.ErrTypeNotFound, "validation log not found", services.ErrCollectionLogAbsent)}
		rec := httptest.NewRecorder()
		newTestRouter(svc, fakeHealthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/9%20NONE/log", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeCollectionNotFound, decodeBody(t, rec)["type"])
	})

	t.Run("bad format", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(&fakeTransformService{}, fakeHealthService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections/1%20INO/log?format=xml", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProjects(t *testing.T) {
	svc := &fakeTransformService{}
	router := newTestRouter(svc, fakeHealthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?folder=1%20INO&folder=2%20PHY", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1 INO", "2 PHY"}, svc.lastFolders)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total_projects"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?folder=..", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		ready      bool
		wantStatus int
		wantBody   string
	}{
		{"liveness", "/healthz", false, http.StatusOK, `"status":"alive"`},
		{"ready", "/readyz", true, http.StatusOK, `"status":"ready"`},
		{"not ready", "/readyz", false, http.StatusServiceUnavailable, `"status":"not_ready"`},
		{"version", "/api/v1/version", false, http.StatusOK, `"version":"test"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(&fakeTransformService{}, fakeHealthService{ready: tt.ready}).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	t.Run("verbose liveness", func(t *testing.T) {
		router := newTestRouter(&fakeTransformService{}, fakeHealthService{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.False(t, bytes.Contains(rec.Body.Bytes(), []byte("goroutines")))

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
		assert.Contains(t, rec.Body.String(), "goroutines")
	})
}
