package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"rbmfcli/internal/config"
	"rbmfcli/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Ready reports whether a readiness check passed
func (s HealthStatus) Ready() bool {
	return s.Status == "ready"
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports ready when the data directory can be read and the
// output directory can be written
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"data":   hs.checkDataHealth(),
			"output": hs.checkOutputHealth(),
		},
	}

	for name, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "ReadinessCheck: service not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}
	return status
}

// checkDataHealth checks that the data directory exists and is listable
func (hs *HealthService) checkDataHealth() ServiceHealth {
	dataDir := hs.paths.DataDir
	info, err := os.Stat(dataDir)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data directory not found: %s", dataDir)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data path is not a directory: %s", dataDir)}
	}
	if _, err := os.ReadDir(dataDir); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Cannot read data directory: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "Data directory is readable"}
}

// checkOutputHealth checks that the output directory can be created
func (hs *HealthService) checkOutputHealth() ServiceHealth {
	if err := os.MkdirAll(hs.paths.OutputDir, 0755); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Cannot write output directory: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "Output directory is writable"}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":        hs.version,
		"output_format":  info.OutputFormat,
		"api_version":    info.APIVersion,
		"git_commit":     info.GitCommit,
		"build_time":     info.BuildTime,
		"go_version":     info.GoVersion,
		"os":             info.OS,
		"arch":           info.Arch,
		"uptime_seconds": time.Since(hs.startTime).Seconds(),
		"start_time":     hs.startTime.Format(time.RFC3339),
	}
}
