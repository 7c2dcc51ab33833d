package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"rbmfcli/internal/files"
	"rbmfcli/pkg/contracts/domain"
)

// Options selects what an Exporter writes besides the final workbooks
type Options struct {
	Steps    bool // add the RBMF_1 and RBMF_2 sheets, write under steps/
	WriteCSV bool
}

// Exporter writes the results of a run to the output directory and keeps
// the report of what it wrote. It is safe for concurrent use by the
// collections of one run.
type Exporter struct {
	files     *files.Manager
	workbooks *WorkbookWriter
	csv       *CSVWriter
	opts      Options
	logger    *slog.Logger

	mu     sync.Mutex
	report *Report
}

// New creates an exporter writing under the paths of fm
func New(fm *files.Manager, opts Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	mode := ModeFinal
	if opts.Steps {
		mode = ModeSteps
	}
	return &Exporter{
		files:     fm,
		workbooks: NewWorkbookWriter(logger),
		csv:       NewCSVWriter(fm, logger),
		opts:      opts,
		logger:    logger.With(slog.String("component", "exporter")),
		report:    NewReport(mode),
	}
}

// Emit writes one workbook per processed source file, the validation log
// and, if enabled, the CSV table. Files that could not be written are
// recorded in the report and returned as one joined error.
func (e *Exporter) Emit(ctx context.Context, result *domain.CollectionResult) error {
	paths := e.files.Paths()
	dir := paths.CollectionOutputDir(result.CollectionID, e.opts.Steps)
	if err := e.files.PrepareOutputDirectory(dir); err != nil {
		return err
	}

	fr := &FolderResult{
		FileResults:   []FileResult{},
		Discrepancies: len(result.Log),
		Summary:       result.Summary,
	}

	var errs []error
	_, byFile := result.RowsByFile()
	for _, name := range sourceFiles(result) {
		out := filepath.Join(dir, name)
		rows := byFile[name]
		data, err := e.workbooks.Render(WorkbookSheets{
			Table:    result.Table,
			Rows:     rows,
			Quarters: result.Quarters[name],
			Steps:    e.opts.Steps,
		})
		if err == nil {
			err = e.files.WriteFile(out, data)
		}
		if err != nil {
			e.logger.ErrorContext(ctx, "workbook not written",
				slog.String("collection", result.CollectionID),
				slog.String("file", name),
				slog.String("error", err.Error()))
			fr.FilesFailed++
			fr.FileResults = append(fr.FileResults, FileResult{FileName: name, Error: err.Error()})
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		fr.FilesCreated++
		fr.FileResults = append(fr.FileResults, FileResult{FileName: name, Created: true, OutputFile: out, Rows: len(rows)})
	}

	for _, skip := range result.Summary.Skips {
		if skip.Level != domain.SkipLevelFile {
			continue
		}
		fr.FilesFailed++
		fr.FileResults = append(fr.FileResults, FileResult{FileName: skip.File, Error: skip.Reason})
	}

	logPath := paths.ValidationLogPath(result.CollectionID)
	if err := WriteValidationLog(e.files, logPath, result.Log); err != nil {
		errs = append(errs, err)
	} else {
		fr.ValidationLog = logPath
	}

	if e.opts.WriteCSV {
		csvPath := filepath.Join(dir, result.CollectionID+".csv")
		if err := e.csv.WriteTable(csvPath, result.Table); err != nil {
			errs = append(errs, err)
		} else {
			fr.CSVFile = csvPath
		}
	}

	e.mu.Lock()
	e.report.AddFolder(result.CollectionID, fr)
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "collection exported",
		slog.String("collection", result.CollectionID),
		slog.String("dir", dir),
		slog.Int("files_created", fr.FilesCreated),
		slog.Int("files_failed", fr.FilesFailed))
	return errors.Join(errs...)
}

// Report returns the report of everything emitted so far
func (e *Exporter) Report() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// RecordFailure adds a collection that failed before anything was emitted.
// Collections already emitted keep their file results.
func (e *Exporter) RecordFailure(collection string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fr, ok := e.report.FolderResults[collection]; ok {
		fr.Error = err.Error()
		return
	}
	e.report.AddFailure(collection, err)
}

// WriteReport writes the report to the configured report file
func (e *Exporter) WriteReport() (string, error) {
	path := e.files.Paths().ReportFile
	if err := WriteReport(e.files, path, e.Report()); err != nil {
		return "", err
	}
	return path, nil
}

// sourceFiles lists the processed files followed by any file that only
// appears in the table
func sourceFiles(result *domain.CollectionResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range result.Summary.Processed {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	order, _ := result.RowsByFile()
	for _, name := range order {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
