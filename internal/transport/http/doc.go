// Package http implements the HTTP handlers of the RBMF transformer service.
// Handlers stay thin: they decode and validate requests, call the services
// and render JSON responses. Failures are written as RFC 7807 problem
// details through the shared error handler.
//
// Routes served:
//
//	POST /api/v1/transform                 run a transformation
//	GET  /api/v1/collections               list collections
//	GET  /api/v1/collections/{id}/log      validation log of a collection
//	GET  /api/v1/projects                  project workbooks per folder
//	GET  /api/v1/version                   build information
//	GET  /healthz, /readyz                 liveness and readiness
package http
