package exporter

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"rbmfcli/internal/files"
	"rbmfcli/pkg/contracts"
	"rbmfcli/pkg/contracts/domain"
)

// Report modes
const (
	ModeFinal = "final"
	ModeSteps = "steps"
)

// FileResult is the outcome of one source workbook
type FileResult struct {
	FileName   string `json:"file_name"`
	Created    bool   `json:"created"`
	OutputFile string `json:"output_file,omitempty"`
	Rows       int    `json:"rows"`
	Error      string `json:"error,omitempty"`
}

// FolderResult is the outcome of one collection
type FolderResult struct {
	FilesCreated  int                      `json:"files_created"`
	FilesFailed   int                      `json:"files_failed"`
	FileResults   []FileResult             `json:"file_results"`
	Discrepancies int                      `json:"discrepancies"`
	ValidationLog string                   `json:"validation_log,omitempty"`
	CSVFile       string                   `json:"csv_file,omitempty"`
	Summary       domain.ProcessingSummary `json:"summary"`
	Error         string                   `json:"error,omitempty"`
}

// Report is the content of transformation_report.json
type Report struct {
	Version       string                   `json:"version"`
	GeneratedAt   time.Time                `json:"generated_at"`
	Mode          string                   `json:"mode"`
	TotalFiles    int                      `json:"total_files"`
	CreatedFiles  int                      `json:"created_files"`
	FailedFiles   int                      `json:"failed_files"`
	Discrepancies int                      `json:"discrepancies"`
	FolderResults map[string]*FolderResult `json:"folder_results"`
}

// NewReport creates an empty report for the given mode
func NewReport(mode string) *Report {
	return &Report{
		Version:       contracts.Version,
		GeneratedAt:   time.Now().UTC(),
		Mode:          mode,
		FolderResults: make(map[string]*FolderResult),
	}
}

// AddFolder records the result of one collection and updates the totals.
// A collection added twice replaces its earlier result.
func (r *Report) AddFolder(collection string, fr *FolderResult) {
	if old, ok := r.FolderResults[collection]; ok {
		r.subtract(old)
	}
	r.FolderResults[collection] = fr
	r.TotalFiles += len(fr.FileResults)
	r.CreatedFiles += fr.FilesCreated
	r.FailedFiles += fr.FilesFailed
	r.Discrepancies += fr.Discrepancies
}

// AddFailure records a collection that produced no output
func (r *Report) AddFailure(collection string, err error) {
	r.AddFolder(collection, &FolderResult{FileResults: []FileResult{}, Error: err.Error()})
}

func (r *Report) subtract(fr *FolderResult) {
	r.TotalFiles -= len(fr.FileResults)
	r.CreatedFiles -= fr.FilesCreated
	r.FailedFiles -= fr.FilesFailed
	r.Discrepancies -= fr.Discrepancies
}

// Collections returns the reported collection names, sorted
func (r *Report) Collections() []string {
	names := make([]string, 0, len(r.FolderResults))
	for name := range r.FolderResults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed reports whether any collection or file failed
func (r *Report) Failed() bool {
	if r.FailedFiles > 0 {
		return true
	}
	for _, fr := range r.FolderResults {
		if fr.Error != "" {
			return true
		}
	}
	return false
}

// WriteReport writes the report as indented JSON
func WriteReport(fm *files.Manager, path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := fm.WriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
