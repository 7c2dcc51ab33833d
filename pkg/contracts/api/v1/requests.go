// Package api contains API contract definitions for the RBMF transformer.
// Version v1 represents the current stable API version.
package api

import (
	"rbmfcli/pkg/contracts/domain"
)

// Transform API Requests

// TransformRequest starts a transformation of one or more collections.
// An empty Folders list means every discoverable collection.
type TransformRequest struct {
	Folders []string `json:"folders,omitempty" validate:"omitempty,max=100,dive,required,folder"`
	Steps   bool     `json:"steps"`
	CSV     bool     `json:"csv"`
}

// CollectionLogRequest fetches the validation log of one collection
type CollectionLogRequest struct {
	CollectionID string `json:"collection_id" param:"id" validate:"required,folder"`
	Format       string `json:"format" query:"format" validate:"omitempty,oneof=text json"`
}

// ProjectsRequest lists project workbooks, optionally for some folders only
type ProjectsRequest struct {
	Folders []string `json:"folders,omitempty" query:"folder" validate:"omitempty,max=100,dive,required,folder"`
}

// HealthCheckRequest represents a health check request
type HealthCheckRequest struct {
	Verbose bool `json:"verbose" query:"verbose"`
}

// Transform API Responses

// CollectionOutcome summarizes one collection of a transform run
type CollectionOutcome struct {
	CollectionID  string                   `json:"collection_id"`
	Status        string                   `json:"status"`
	Rows          int                      `json:"rows"`
	Discrepancies int                      `json:"discrepancies"`
	Summary       domain.ProcessingSummary `json:"summary"`
	Outputs       []string                 `json:"outputs,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

// TransformResponse is returned by POST /api/v1/transform
type TransformResponse struct {
	TraceID     string              `json:"trace_id"`
	Mode        string              `json:"mode"`
	Collections []CollectionOutcome `json:"collections"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
}

// CollectionsResponse lists the collections found under the data directory
type CollectionsResponse struct {
	DataDir     string   `json:"data_dir"`
	Collections []string `json:"collections"`
}

// CollectionLogResponse carries a collection's discrepancy entries. Text
// holds the rendered log file when the entries of the run are no longer in
// memory.
type CollectionLogResponse struct {
	CollectionID string                    `json:"collection_id"`
	Entries      []domain.DiscrepancyEntry `json:"entries,omitempty"`
	Text         string                    `json:"text,omitempty"`
}
