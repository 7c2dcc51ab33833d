package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rbmfcli/internal/dataprocessing"
	"rbmfcli/internal/files"
	"rbmfcli/internal/mapping"
	"rbmfcli/internal/validation"
	"rbmfcli/pkg/contracts/domain"
)

// LoadStage reads every workbook of the collection into quarter records
type LoadStage struct {
	BaseStage
	reader    *dataprocessing.SheetReader
	discovery *files.Discovery
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewLoadStage creates the load step
func NewLoadStage(reader *dataprocessing.SheetReader, discovery *files.Discovery, validator *validation.FileValidator, logger *slog.Logger) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad, nil),
		reader:    reader,
		discovery: discovery,
		validator: validator,
		logger:    logger.With(slog.String("step", StageIDLoad)),
	}
}

// Validate implements Step
func (s *LoadStage) Validate(state *OperationState) error {
	return requireContext(state, ContextKeyCollection, ContextKeySummary)
}

// Execute implements Step. Unusable files and rows are recorded in the
// summary; only a failure to list the collection stops the step.
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	coll := contextValue[Collection](state, ContextKeyCollection)
	summary := contextValue[*domain.ProcessingSummary](state, ContextKeySummary)
	stepState := state.GetStage(s.ID())

	workbooks, err := s.discovery.FindExcelFiles(coll.Dir)
	if err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	records := make([]domain.QuarterRecord, 0)
	for i, wb := range workbooks {
		// between files only
		if ctx.Err() != nil {
			return NewTimeoutError(s.ID(), ctx.Err().Error())
		}
		summary.FilesSeen++

		if err := s.validator.ValidateExcelFile(wb.Path); err != nil {
			s.skipFile(ctx, summary, wb.Name, err)
			continue
		}
		raws, err := s.reader.ReadFile(wb.Path, wb.Name)
		if err != nil {
			s.skipFile(ctx, summary, wb.Name, err)
			continue
		}
		summary.FilesProcessed++
		summary.Processed = append(summary.Processed, wb.Name)

		for _, raw := range raws {
			rec, err := dataprocessing.ParseRow(raw, s.reader.Mapping())
			if err != nil {
				var pe *dataprocessing.ParseError
				if errors.As(err, &pe) {
					summary.SkipRow(wb.Name, pe.Row, pe.Field, pe.Reason)
				} else {
					summary.SkipRow(wb.Name, raw.Index, "", err.Error())
				}
				s.logger.WarnContext(ctx, "row skipped",
					slog.String("file", wb.Name),
					slog.Int("row", raw.Index),
					slog.String("error", err.Error()))
				continue
			}
			summary.RowsParsed++
			records = append(records, rec)
		}

		if stepState != nil {
			stepState.UpdateProgress(float64(i+1)*100/float64(len(workbooks)), fmt.Sprintf("read %s", wb.Name))
		}
	}

	s.logger.InfoContext(ctx, "collection loaded",
		slog.String("collection", coll.ID),
		slog.Int("files", len(workbooks)),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("rows", len(records)))

	state.SetContext(ContextKeyRecords, records)
	return nil
}

func (s *LoadStage) skipFile(ctx context.Context, summary *domain.ProcessingSummary, name string, err error) {
	var missing *dataprocessing.MissingTabError
	level := slog.LevelWarn
	if !errors.As(err, &missing) {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "file skipped", slog.String("file", name), slog.String("error", err.Error()))
	summary.SkipFile(name, err.Error())
}

// GroupStage partitions the records by file, entity and half-year
type GroupStage struct {
	BaseStage
	logger *slog.Logger
}

// NewGroupStage creates the group step
func NewGroupStage(logger *slog.Logger) *GroupStage {
	return &GroupStage{
		BaseStage: NewBaseStage(StageIDGroup, StageNameGroup, []string{StageIDLoad}),
		logger:    logger.With(slog.String("step", StageIDGroup)),
	}
}

// Validate implements Step
func (s *GroupStage) Validate(state *OperationState) error {
	return requireContext(state, ContextKeyRecords, ContextKeySummary)
}

// Execute implements Step. Repeated periods keep their first row.
func (s *GroupStage) Execute(ctx context.Context, state *OperationState) error {
	records := contextValue[[]domain.QuarterRecord](state, ContextKeyRecords)
	summary := contextValue[*domain.ProcessingSummary](state, ContextKeySummary)

	groups, duplicates := dataprocessing.GroupRecords(records)

	type rowKey struct {
		file string
		row  int
	}
	dropped := make(map[rowKey]bool, len(duplicates))
	for _, d := range duplicates {
		dropped[rowKey{d.Source.File, d.Source.Row}] = true
		summary.SkipRow(d.Source.File, d.Source.Row, string(domain.FieldPeriod), "duplicate period")
		s.logger.WarnContext(ctx, "duplicate period",
			slog.String("file", d.Source.File),
			slog.Int("row", d.Source.Row),
			slog.String("entity_id", d.EntityID),
			slog.String("period", d.Period.String()))
	}

	quarters := make(map[string][]domain.QuarterRecord)
	for _, rec := range records {
		if dropped[rowKey{rec.Source.File, rec.Source.Row}] {
			continue
		}
		quarters[rec.Source.File] = append(quarters[rec.Source.File], rec)
	}

	state.SetContext(ContextKeyGroups, groups)
	state.SetContext(ContextKeyQuarters, quarters)
	return nil
}

// AggregateStage folds each group into one half-year row
type AggregateStage struct {
	BaseStage
	aggregator       *dataprocessing.Aggregator
	projects         *mapping.ProjectIndex
	includeProjectID bool
	logger           *slog.Logger
}

// NewAggregateStage creates the aggregate step. projects may be nil.
func NewAggregateStage(aggregator *dataprocessing.Aggregator, projects *mapping.ProjectIndex, includeProjectID bool, logger *slog.Logger) *AggregateStage {
	if aggregator == nil {
		aggregator = dataprocessing.NewAggregator(nil)
	}
	return &AggregateStage{
		BaseStage:        NewBaseStage(StageIDAggregate, StageNameAggregate, []string{StageIDGroup}),
		aggregator:       aggregator,
		projects:         projects,
		includeProjectID: includeProjectID,
		logger:           logger.With(slog.String("step", StageIDAggregate)),
	}
}

// Validate implements Step
func (s *AggregateStage) Validate(state *OperationState) error {
	return requireContext(state, ContextKeyGroups, ContextKeyCollection, ContextKeySummary)
}

// Execute implements Step
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	coll := contextValue[Collection](state, ContextKeyCollection)
	groups := contextValue[[]dataprocessing.QuarterGroup](state, ContextKeyGroups)
	summary := contextValue[*domain.ProcessingSummary](state, ContextKeySummary)

	log := dataprocessing.NewValidationLog()
	table := domain.NewOutputTable()
	projectIDs := make(map[string]string)

	for _, g := range groups {
		rec, ok := s.aggregator.Aggregate(g, log)
		if !ok {
			continue
		}
		if s.includeProjectID && s.projects != nil {
			id, seen := projectIDs[g.File]
			if !seen {
				id = s.projects.Lookup(coll.ID, g.File)
				projectIDs[g.File] = id
			}
			rec.ProjectID = id
		}
		table.Rows = append(table.Rows, rec)
	}
	if s.includeProjectID {
		table.Columns = append(table.Columns, domain.ColumnProjectID)
	}

	summary.RowsEmitted = len(table.Rows)
	summary.Discrepancies = log.Len()

	s.logger.InfoContext(ctx, "collection aggregated",
		slog.String("collection", coll.ID),
		slog.Int("groups", len(groups)),
		slog.Int("rows", len(table.Rows)),
		slog.Int("discrepancies", log.Len()))

	state.SetContext(ContextKeyTable, table)
	state.SetContext(ContextKeyLog, log)
	return nil
}

// Emitter receives the finished result of a collection
type Emitter interface {
	Emit(ctx context.Context, result *domain.CollectionResult) error
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(ctx context.Context, result *domain.CollectionResult) error

// Emit implements Emitter
func (f EmitterFunc) Emit(ctx context.Context, result *domain.CollectionResult) error {
	return f(ctx, result)
}

// EmitStage assembles the collection result and hands it to the emitter
type EmitStage struct {
	BaseStage
	emitter Emitter
	logger  *slog.Logger
}

// NewEmitStage creates the emit step. emitter may be nil.
func NewEmitStage(emitter Emitter, logger *slog.Logger) *EmitStage {
	return &EmitStage{
		BaseStage: NewBaseStage(StageIDEmit, StageNameEmit, []string{StageIDAggregate}),
		emitter:   emitter,
		logger:    logger.With(slog.String("step", StageIDEmit)),
	}
}

// Validate implements Step
func (s *EmitStage) Validate(state *OperationState) error {
	return requireContext(state, ContextKeyTable, ContextKeyLog, ContextKeyCollection, ContextKeySummary)
}

// Execute implements Step. Emitter failures are retryable since output
// files may be briefly locked by other programs.
func (s *EmitStage) Execute(ctx context.Context, state *OperationState) error {
	coll := contextValue[Collection](state, ContextKeyCollection)
	log := contextValue[*dataprocessing.ValidationLog](state, ContextKeyLog)

	result := &domain.CollectionResult{
		CollectionID: coll.ID,
		Table:        contextValue[domain.OutputTable](state, ContextKeyTable),
		Log:          log.Entries(),
		Summary:      *contextValue[*domain.ProcessingSummary](state, ContextKeySummary),
		Quarters:     contextValue[map[string][]domain.QuarterRecord](state, ContextKeyQuarters),
	}
	state.SetContext(ContextKeyResult, result)

	if s.emitter == nil {
		return nil
	}
	if err := s.emitter.Emit(ctx, result); err != nil {
		return NewExecutionError(s.ID(), err, true)
	}
	s.logger.DebugContext(ctx, "collection emitted", slog.String("collection", coll.ID))
	return nil
}

// contextValue reads a typed value from the state context, or the zero value
func contextValue[T any](state *OperationState, key string) T {
	var zero T
	v, ok := state.GetContext(key)
	if !ok {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		return zero
	}
	return typed
}
