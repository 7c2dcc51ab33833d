package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbmfcli/internal/config"
	apierrors "rbmfcli/internal/errors"
	"rbmfcli/internal/infrastructure"
	customMiddleware "rbmfcli/internal/middleware"
	"rbmfcli/internal/operations"
	"rbmfcli/internal/services"
	handlers "rbmfcli/internal/transport/http"
	"rbmfcli/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Transform *services.TransformService
	Health    *services.HealthService
}

// NewApplication wires the services, router and HTTP server for cfg
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	tracer, err := operations.NewPipelineTracer(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create pipeline tracer: %w", err)
	}

	transform, err := services.NewTransformService(a.Config, a.Paths, tracer, a.Logger)
	if err != nil {
		return err
	}

	a.Services = &ServiceContainer{
		Transform: transform,
		Health:    services.NewHealthService(contracts.Version, a.Paths, a.Logger),
	}
	return nil
}

// setupRouter builds the middleware chain and the routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	if otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders); err != nil {
		a.Logger.Warn("HTTP instrumentation disabled", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(errorHandler.Middleware)
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(middleware.StripSlashes)

	if a.Config.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.RateLimit.RPS,
			a.Config.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.setupAPIRoutes(r, errorHandler, health)
	a.Router = r
}

// setupAPIRoutes mounts the versioned JSON API
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler, health *handlers.HealthHandler) {
	validator := customMiddleware.NewValidator(a.Logger, errorHandler)
	transform := handlers.NewTransformHandler(a.Services.Transform, validator, errorHandler, a.Config.Server.OperationTimeout, a.Logger)
	collections := handlers.NewCollectionsHandler(a.Services.Transform, validator, errorHandler, a.Logger)

	r.Route("/api/"+contracts.APIVersion, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/version", health.Version)
		r.Get("/projects", collections.Projects)
		r.Mount("/collections", collections.Routes())
		r.Mount("/transform", transform.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("output_dir", a.Paths.OutputDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until ctx is done or an interrupt arrives, then shuts down
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.WithoutCancel(ctx))
}

// performStartupHealthCheck logs what the readiness check would report
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Ready() {
		a.Logger.InfoContext(ctx, "Startup health check passed")
		return nil
	}

	var warnings []string
	for name, svc := range status.Services {
		if svc.Status != "ready" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", name, svc.Message))
		}
	}
	return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
}
