package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rbmfcli/internal/dataprocessing"
	"rbmfcli/internal/files"
	"rbmfcli/internal/mapping"
	"rbmfcli/internal/validation"
	"rbmfcli/pkg/contracts/domain"
)

// PipelineOptions configures a Pipeline
type PipelineOptions struct {
	DataDir    string
	SheetName  string
	Columns    dataprocessing.ColumnMapping
	Normalizer dataprocessing.Normalizer // optional

	Projects         *mapping.ProjectIndex // optional
	IncludeProjectID bool

	// Parallelism above 1 transforms that many collections at once
	Parallelism int

	Emitter Emitter // optional
	Config  *Config
	Tracer  *PipelineTracer
}

// Pipeline turns collections of quarterly workbooks into half-year tables
type Pipeline struct {
	opts      PipelineOptions
	manager   *Manager
	validator *validation.FileValidator
	tracer    *PipelineTracer
	logger    *slog.Logger
}

// NewPipeline registers the load, group, aggregate and emit steps
func NewPipeline(opts PipelineOptions, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = NewNoopPipelineTracer()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	logger = logger.With(slog.String("component", "pipeline"))

	validator := validation.NewFileValidator(logger)
	reader := dataprocessing.NewSheetReader(opts.SheetName, opts.Columns, opts.Normalizer, logger)

	registry := NewRegistry()
	for _, step := range []Step{
		NewLoadStage(reader, files.NewDiscovery(opts.DataDir, nil), validator, logger),
		NewGroupStage(logger),
		NewAggregateStage(dataprocessing.NewAggregator(nil), opts.Projects, opts.IncludeProjectID, logger),
		NewEmitStage(opts.Emitter, logger),
	} {
		if err := registry.Register(step); err != nil {
			return nil, fmt.Errorf("failed to register step: %w", err)
		}
	}
	if err := registry.ValidateDependencies(); err != nil {
		return nil, err
	}

	return &Pipeline{
		opts:      opts,
		manager:   NewManager(registry, opts.Config, opts.Tracer, logger),
		validator: validator,
		tracer:    opts.Tracer,
		logger:    logger,
	}, nil
}

// Manager exposes the step manager
func (p *Pipeline) Manager() *Manager {
	return p.manager
}

// Transform runs one collection through every step. A missing collection
// directory yields *dataprocessing.CollectionNotFoundError. Once started,
// a collection runs to completion even if ctx is cancelled.
func (p *Pipeline) Transform(ctx context.Context, c Collection) (*domain.CollectionResult, error) {
	if c.Dir == "" {
		c.Dir = filepath.Join(p.opts.DataDir, c.ID)
	}
	if abs, err := filepath.Abs(c.Dir); err == nil {
		c.Dir = abs
	}

	if err := p.validator.ValidateInputDirectory(c.Dir); err != nil {
		return nil, &dataprocessing.CollectionNotFoundError{Collection: c.ID, Path: c.Dir, Cause: err}
	}

	ctx, span := p.tracer.TraceCollection(ctx, c.ID)
	defer span.End()
	start := time.Now()

	state := NewOperationState(c.ID)
	state.SetContext(ContextKeyCollection, c)
	state.SetContext(ContextKeySummary, &domain.ProcessingSummary{})

	err := p.manager.Execute(context.WithoutCancel(ctx), state)
	result := contextValue[*domain.CollectionResult](state, ContextKeyResult)
	p.tracer.RecordCollection(ctx, span, c.ID, result, time.Since(start), err)

	if err != nil {
		return result, err
	}

	p.logger.InfoContext(ctx, "collection transformed",
		slog.String("collection", c.ID),
		slog.Int("rows", result.Summary.RowsEmitted),
		slog.Int("rows_skipped", result.Summary.RowsSkipped),
		slog.Int("files_skipped", result.Summary.FilesSkipped),
		slog.Int("discrepancies", result.Summary.Discrepancies),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// TransformAll runs every collection in ID order. A failed collection does
// not stop the others; failures come back as *ErrorList next to the results
// of the collections that succeeded. ctx is checked before each collection
// starts.
func (p *Pipeline) TransformAll(ctx context.Context, collections []Collection) (map[string]*domain.CollectionResult, error) {
	ordered := p.order(collections)
	results := make(map[string]*domain.CollectionResult, len(ordered))

	var (
		mu   sync.Mutex
		errs ErrorList
	)
	run := func(c Collection) {
		if ctx.Err() != nil {
			mu.Lock()
			errs.Add(CollectionError(c.ID, NewCancellationError("")))
			mu.Unlock()
			return
		}

		result, err := p.Transform(ctx, c)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			p.logger.ErrorContext(ctx, "collection failed",
				slog.String("collection", c.ID),
				slog.String("error", err.Error()))
			errs.Add(CollectionError(c.ID, err))
			return
		}
		results[c.ID] = result
	}

	if p.opts.Parallelism <= 1 {
		for _, c := range ordered {
			run(c)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.opts.Parallelism)
		for _, c := range ordered {
			g.Go(func() error {
				run(c)
				return nil
			})
		}
		_ = g.Wait()
	}

	if errs.HasErrors() {
		errs.Sort()
		return results, &errs
	}
	return results, nil
}

// order sorts collections by ID and drops repeated IDs
func (p *Pipeline) order(collections []Collection) []Collection {
	out := make([]Collection, 0, len(collections))
	seen := make(map[string]bool, len(collections))
	for _, c := range collections {
		if seen[c.ID] {
			p.logger.Warn("collection listed twice", slog.String("collection", c.ID))
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
