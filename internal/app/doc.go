// Package app wires the RBMF transformer service together and manages its
// lifecycle.
//
// NewApplication resolves the configured paths, sets up OpenTelemetry,
// creates the services and builds the chi router with its middleware chain:
//
//	RequestID → RealIP → OTel → StructuredLogger → Recoverer →
//	SecurityHeaders → StripSlashes → RateLimiter
//
// Run serves until the context is cancelled or SIGINT/SIGTERM arrives and
// then shuts the server and the telemetry providers down.
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
