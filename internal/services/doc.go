// Package services implements the business logic layer shared by the CLI
// and the HTTP API.
//
// TransformService resolves requested collections against the data
// directory, builds the operations pipeline with the value and project
// mappings, and writes every output through the exporter. Only one
// transformation runs at a time; a second request gets ErrOperationRunning.
//
//	svc, err := services.NewTransformService(cfg, paths, tracer, logger)
//	outcome, err := svc.Transform(ctx, services.TransformOptions{Folders: []string{"1 INO"}})
//
// HealthService answers liveness and readiness checks.
package services
