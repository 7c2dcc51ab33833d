package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"rbmfcli/internal/config"
	"rbmfcli/internal/dataprocessing"
	apperrors "rbmfcli/internal/errors"
	"rbmfcli/internal/exporter"
	"rbmfcli/internal/files"
	"rbmfcli/internal/mapping"
	"rbmfcli/internal/operations"
	api "rbmfcli/pkg/contracts/api/v1"
	"rbmfcli/pkg/contracts/domain"
)

// TransformOptions selects the collections and outputs of one run
type TransformOptions struct {
	Folders []string // empty means every collection
	Steps   bool
	CSV     bool
}

// TransformOutcome is the result of one run
type TransformOutcome struct {
	Mode       string
	Results    map[string]*domain.CollectionResult
	Invalid    []files.InvalidCollection
	Errors     *operations.ErrorList // nil when every collection succeeded
	Report     *exporter.Report
	ReportPath string
	Duration   time.Duration
}

// TransformService runs transformations for the CLI and the HTTP API
type TransformService struct {
	cfg        *config.Config
	files      *files.Manager
	discovery  *files.Discovery
	normalizer *mapping.ValueMapper
	projects   *mapping.ProjectIndex
	tracer     *operations.PipelineTracer
	logger     *slog.Logger

	running sync.Mutex

	mu   sync.RWMutex
	logs map[string][]domain.DiscrepancyEntry // last run's log per collection
}

// NewTransformService loads the mapping files and prepares the service.
// Missing mapping files are not an error; malformed ones are.
func NewTransformService(cfg *config.Config, paths *config.Paths, tracer *operations.PipelineTracer, logger *slog.Logger) (*TransformService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "transform"))

	threshold := cfg.Transform.FuzzyThreshold
	if threshold <= 0 {
		threshold = config.DefaultFuzzyThreshold
	}
	normalizer, err := mapping.LoadValueMapper(paths.ColumnMappingFile, threshold, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid column mapping", err)
	}
	projects, err := mapping.LoadProjectIndex(paths.ProjectMappingFile, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid project mapping", err)
	}

	logger.Info("TransformService initialized",
		slog.String("data_dir", paths.DataDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Int("value_mappings", normalizer.Len()))

	return &TransformService{
		cfg:        cfg,
		files:      files.NewManager(paths, logger),
		discovery:  files.NewDiscovery(paths.DataDir, config.ExcludedFolders),
		normalizer: normalizer,
		projects:   projects,
		tracer:     tracer,
		logger:     logger,
		logs:       make(map[string][]domain.DiscrepancyEntry),
	}, nil
}

// Paths returns the resolved paths the service works on
func (s *TransformService) Paths() *config.Paths {
	return s.files.Paths()
}

// Collections lists the collections of the data directory
func (s *TransformService) Collections() ([]string, error) {
	names, err := s.discovery.ListCollections()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list collections", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Transform runs the pipeline over the requested collections, writes the
// outputs and the report. Unknown names are dropped with suggestions; if no
// requested name is valid, *InvalidCollectionsError is returned. Failed
// collections are reported in the outcome, not as an error.
func (s *TransformService) Transform(ctx context.Context, opts TransformOptions) (*TransformOutcome, error) {
	if !s.running.TryLock() {
		return nil, ErrOperationRunning
	}
	defer s.running.Unlock()
	start := time.Now()

	requested := opts.Folders
	if len(requested) == 0 {
		all, err := s.Collections()
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, ErrNoCollections
		}
		requested = all
	}

	valid, invalid, err := s.discovery.ValidateCollections(requested)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list collections", err)
	}
	for _, inv := range invalid {
		s.logger.WarnContext(ctx, "unknown collection",
			slog.String("collection", inv.Name),
			slog.Any("suggestions", inv.Suggestions))
	}
	if len(valid) == 0 {
		return nil, &InvalidCollectionsError{Invalid: invalid}
	}

	exp := exporter.New(s.files, exporter.Options{Steps: opts.Steps, WriteCSV: opts.CSV || s.cfg.Transform.WriteCSV}, s.logger)
	pipeline, err := s.newPipeline(exp)
	if err != nil {
		return nil, err
	}

	collections := make([]operations.Collection, len(valid))
	for i, name := range valid {
		collections[i] = operations.Collection{ID: name, Dir: s.Paths().CollectionDir(name)}
	}

	s.logger.InfoContext(ctx, "transformation started",
		slog.Any("collections", valid),
		slog.String("mode", exp.Report().Mode))

	results, runErr := pipeline.TransformAll(ctx, collections)

	outcome := &TransformOutcome{
		Mode:    exp.Report().Mode,
		Results: results,
		Invalid: invalid,
	}
	var list *operations.ErrorList
	if errors.As(runErr, &list) {
		outcome.Errors = list
		for _, e := range list.Errors {
			exp.RecordFailure(e.Collection, e)
		}
	} else if runErr != nil {
		return nil, runErr
	}

	s.mu.Lock()
	for id, r := range results {
		s.logs[id] = r.Log
	}
	s.mu.Unlock()

	outcome.ReportPath, err = exp.WriteReport()
	if err != nil {
		s.logger.ErrorContext(ctx, "report not written", slog.String("error", err.Error()))
	}
	outcome.Report = exp.Report()
	outcome.Duration = time.Since(start)

	s.logger.InfoContext(ctx, "transformation finished",
		slog.Int("succeeded", len(results)),
		slog.Int("failed", len(collections)-len(results)),
		slog.Int("files_created", outcome.Report.CreatedFiles),
		slog.Int("discrepancies", outcome.Report.Discrepancies),
		slog.Duration("duration", outcome.Duration))
	return outcome, nil
}

func (s *TransformService) newPipeline(emitter operations.Emitter) (*operations.Pipeline, error) {
	tc := s.cfg.Transform
	sheet := tc.SheetName
	if sheet == "" {
		sheet = config.DefaultSheetName
	}
	return operations.NewPipeline(operations.PipelineOptions{
		DataDir:          s.Paths().DataDir,
		SheetName:        sheet,
		Columns:          dataprocessing.DefaultColumnMapping().Merge(tc.Columns),
		Normalizer:       s.normalizer,
		Projects:         s.projects,
		IncludeProjectID: tc.IncludeProjectID,
		Parallelism:      tc.Parallelism,
		Emitter:          emitter,
		Config:           operations.NewConfig(),
		Tracer:           s.tracer,
	}, s.logger)
}

// CollectionLog returns the discrepancy entries of the last run of a
// collection in this process, or the rendered log file of an earlier run.
// Exactly one of entries and text is set.
func (s *TransformService) CollectionLog(collection string) (entries []domain.DiscrepancyEntry, text string, err error) {
	if strings.TrimSpace(collection) == "" || strings.ContainsAny(collection, `/\`) || strings.Contains(collection, "..") {
		return nil, "", apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("invalid collection name %q", collection), ErrInvalidInput)
	}

	s.mu.RLock()
	entries, ok := s.logs[collection]
	s.mu.RUnlock()
	if ok {
		if entries == nil {
			entries = []domain.DiscrepancyEntry{}
		}
		return entries, "", nil
	}

	data, err := os.ReadFile(s.Paths().ValidationLogPath(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", apperrors.NewNotFoundError(fmt.Sprintf("validation log for %q", collection), ErrCollectionLogAbsent)
	}
	if err != nil {
		return nil, "", apperrors.NewStorageError("failed to read validation log", err)
	}
	return nil, string(data), nil
}

// Projects lists the workbooks of the given folders, or of every collection
func (s *TransformService) Projects(folders []string) (*mapping.ProjectListing, error) {
	if len(folders) == 0 {
		all, err := s.Collections()
		if err != nil {
			return nil, err
		}
		folders = all
	}
	return mapping.ListProjects(s.Paths().DataDir, folders)
}

// Response converts an outcome into the API response
func (o *TransformOutcome) Response(traceID string) api.TransformResponse {
	resp := api.TransformResponse{TraceID: traceID, Mode: o.Mode, Collections: []api.CollectionOutcome{}}

	for id, r := range o.Results {
		var outputs []string
		if fr, ok := o.Report.FolderResults[id]; ok {
			for _, f := range fr.FileResults {
				if f.Created {
					outputs = append(outputs, f.OutputFile)
				}
			}
		}
		resp.Collections = append(resp.Collections, api.CollectionOutcome{
			CollectionID:  id,
			Status:        "completed",
			Rows:          len(r.Table.Rows),
			Discrepancies: len(r.Log),
			Summary:       r.Summary,
			Outputs:       outputs,
		})
		resp.Succeeded++
	}
	if o.Errors != nil {
		for _, e := range o.Errors.Errors {
			resp.Collections = append(resp.Collections, api.CollectionOutcome{
				CollectionID: e.Collection,
				Status:       "failed",
				Error:        e.Error(),
			})
			resp.Failed++
		}
	}
	for _, inv := range o.Invalid {
		resp.Collections = append(resp.Collections, api.CollectionOutcome{
			CollectionID: inv.Name,
			Status:       "not_found",
			Error:        (&InvalidCollectionsError{Invalid: []files.InvalidCollection{inv}}).Error(),
		})
		resp.Failed++
	}

	sort.Slice(resp.Collections, func(i, j int) bool {
		return resp.Collections[i].CollectionID < resp.Collections[j].CollectionID
	})
	return resp
}
