package http

import (
	"context"

	"rbmfcli/internal/config"
	"rbmfcli/internal/mapping"
	"rbmfcli/internal/services"
	"rbmfcli/pkg/contracts/domain"
)

// TransformServiceInterface is the part of services.TransformService the
// handlers use
type TransformServiceInterface interface {
	Transform(ctx context.Context, opts services.TransformOptions) (*services.TransformOutcome, error)
	Collections() ([]string, error)
	CollectionLog(collection string) ([]domain.DiscrepancyEntry, string, error)
	Projects(folders []string) (*mapping.ProjectListing, error)
	Paths() *config.Paths
}

// HealthServiceInterface is the part of services.HealthService the
// handlers use
type HealthServiceInterface interface {
	LivenessCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
