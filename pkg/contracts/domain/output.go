package domain

import (
	"github.com/shopspring/decimal"
)

// Output column headers in emission order
const (
	ColumnPrimaryOutcomeArea   = "Primary Outcome Area"
	ColumnTargetReportingCycle = "Target Reporting Cycle"
	ColumnPeriodicalTarget     = "Periodical Target"
	ColumnPeriodicalResult     = "Periodical Result"
	ColumnIndicatorStatus      = "Indicator Status"
	ColumnIndicatorCategory    = "Indicator Category"
	ColumnIndicatorName        = "Indicator Name"
	ColumnIndicatorDescription = "Indicator Description"
	ColumnResultNotes          = "Result Notes/Comments"
	ColumnSupportingDocument   = "Supporting Document"
	ColumnProjectID            = "Project ID"
)

// OutputColumns is the fixed column order of the half-year table
var OutputColumns = []string{
	ColumnPrimaryOutcomeArea,
	ColumnTargetReportingCycle,
	ColumnPeriodicalTarget,
	ColumnPeriodicalResult,
	ColumnIndicatorStatus,
	ColumnIndicatorCategory,
	ColumnIndicatorName,
	ColumnIndicatorDescription,
	ColumnResultNotes,
	ColumnSupportingDocument,
}

// OutputTable is the half-year table produced for one collection
type OutputTable struct {
	Columns []string         `json:"columns"`
	Rows    []HalfYearRecord `json:"rows"`
}

// NewOutputTable creates an empty table with the standard columns
func NewOutputTable() OutputTable {
	cols := make([]string, len(OutputColumns))
	copy(cols, OutputColumns)
	return OutputTable{Columns: cols, Rows: []HalfYearRecord{}}
}

// Values renders a record as cell strings in OutputColumns order
func (r HalfYearRecord) Values() []string {
	return []string{
		r.PrimaryOutcomeArea,
		r.HalfYear.Cycle(),
		FormatNullDecimal(r.PeriodicalTarget),
		FormatNullDecimal(r.PeriodicalResult),
		r.IndicatorStatus,
		r.IndicatorCategory,
		r.IndicatorName,
		r.IndicatorDescription,
		r.ResultNotes,
		r.SupportingDocument,
	}
}

// Matrix returns all rows as strings, in column order
func (t OutputTable) Matrix() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Values())
	}
	return out
}

// FormatNullDecimal renders null as an empty cell
func FormatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// SkipLevel tells whether a skip dropped a row or a whole file
type SkipLevel string

const (
	SkipLevelRow  SkipLevel = "row"
	SkipLevelFile SkipLevel = "file"
)

// SkipEntry records one recoverable failure
type SkipEntry struct {
	Level  SkipLevel `json:"level"`
	File   string    `json:"file"`
	Row    int       `json:"row,omitempty"`
	Field  string    `json:"field,omitempty"`
	Reason string    `json:"reason"`
}

// ProcessingSummary counts what a collection run read, skipped and logged
type ProcessingSummary struct {
	FilesSeen      int         `json:"files_seen"`
	FilesProcessed int         `json:"files_processed"`
	FilesSkipped   int         `json:"files_skipped"`
	RowsParsed     int         `json:"rows_parsed"`
	RowsSkipped    int         `json:"rows_skipped"`
	RowsEmitted    int         `json:"rows_emitted"`
	Discrepancies  int         `json:"discrepancies"`
	Skips          []SkipEntry `json:"skips,omitempty"`

	// Processed lists the files that were read, in load order
	Processed []string `json:"processed,omitempty"`
}

// SkipRow records a row-level skip
func (s *ProcessingSummary) SkipRow(file string, row int, field, reason string) {
	s.RowsSkipped++
	s.Skips = append(s.Skips, SkipEntry{Level: SkipLevelRow, File: file, Row: row, Field: field, Reason: reason})
}

// SkipFile records a file-level skip
func (s *ProcessingSummary) SkipFile(file, reason string) {
	s.FilesSkipped++
	s.Skips = append(s.Skips, SkipEntry{Level: SkipLevelFile, File: file, Reason: reason})
}

// CollectionResult is what transform returns for one collection
type CollectionResult struct {
	CollectionID string             `json:"collection_id"`
	Table        OutputTable        `json:"table"`
	Log          []DiscrepancyEntry `json:"log"`
	Summary      ProcessingSummary  `json:"summary"`

	// Quarter rows per source file, kept for the intermediate workbook tabs
	Quarters map[string][]QuarterRecord `json:"-"`
}

// RowsByFile groups table rows by their source file, preserving order
func (c *CollectionResult) RowsByFile() ([]string, map[string][]HalfYearRecord) {
	var order []string
	byFile := make(map[string][]HalfYearRecord)
	for _, r := range c.Table.Rows {
		if _, ok := byFile[r.SourceFile]; !ok {
			order = append(order, r.SourceFile)
		}
		byFile[r.SourceFile] = append(byFile[r.SourceFile], r)
	}
	return order, byFile
}
