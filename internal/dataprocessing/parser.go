package dataprocessing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"rbmfcli/pkg/contracts/domain"
)

// DefaultSheetName is the quarterly tab every source workbook must carry
const DefaultSheetName = "RBMF"

// headerScanRows bounds how far down a sheet the header row is searched for
const headerScanRows = 10

// ColumnMapping maps logical fields to the source column headers
type ColumnMapping map[domain.Field]string

// DefaultColumnMapping returns the headers used by the RBMF templates
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		domain.FieldPeriod:                "Reporting Year - Quarter",
		domain.FieldEntityID:              "Indicator_ID",
		domain.FieldPrimaryOutcomeArea:    "Primary Outcome Area",
		domain.FieldIndicatorCategory:     "Result_Type_Data",
		domain.FieldIndicatorName:         "Indicators",
		domain.FieldIndicatorDescription:  "Project Output",
		domain.FieldCompletedOutputNumber: "Completed Output Number",
		domain.FieldOutputTargetNumber:    "Output Target Number",
		domain.FieldProjectStatus:         "Project Output Status",
		domain.FieldProgressNotes:         "Progress Notes/Comments",
		domain.FieldSupportingDocument:    "Supporting Document",
	}
}

// Merge returns a copy of m with the non-empty overrides applied
func (m ColumnMapping) Merge(overrides map[string]string) ColumnMapping {
	out := make(ColumnMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			out[domain.Field(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

// RawRow is one data row of a sheet keyed by header
type RawRow struct {
	File    string
	Sheet   string
	Index   int               // 1-based sheet row
	Values  map[string]string // header -> trimmed cell
	Columns map[string]string // header -> column letter, shared by all rows of a sheet
}

// ParsePeriod parses a "<year>-<quarter>" token such as "2024-1" or "2024 - Q1".
func ParsePeriod(token string) (domain.Period, error) {
	parts := strings.Split(strings.TrimSpace(token), "-")
	if len(parts) != 2 {
		return domain.Period{}, fmt.Errorf("expected <year>-<quarter>, got %q", token)
	}

	yearPart := strings.TrimSpace(parts[0])
	if len(yearPart) != 4 {
		return domain.Period{}, fmt.Errorf("invalid year %q", yearPart)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil || year <= 0 {
		return domain.Period{}, fmt.Errorf("invalid year %q", yearPart)
	}

	q := strings.TrimSpace(parts[1])
	if strings.HasPrefix(q, "Q") || strings.HasPrefix(q, "q") {
		q = q[1:]
	}
	if len(q) != 1 || q[0] < '1' || q[0] > '4' {
		return domain.Period{}, fmt.Errorf("invalid quarter %q", parts[1])
	}

	return domain.Period{Year: year, Quarter: int(q[0] - '0')}, nil
}

// ParseNullDecimal parses a numeric cell; blank means null, never zero.
func ParseNullDecimal(value string) (decimal.NullDecimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	v = strings.ReplaceAll(v, ",", "")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("non-numeric value")
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseRow converts one raw row into a QuarterRecord. It has no side effects.
func ParseRow(raw RawRow, mapping ColumnMapping) (domain.QuarterRecord, error) {
	fail := func(field domain.Field, value, reason string) (domain.QuarterRecord, error) {
		return domain.QuarterRecord{}, &ParseError{
			File:   raw.File,
			Row:    raw.Index,
			Field:  mapping[field],
			Reason: reason,
			Value:  value,
		}
	}

	for _, f := range []domain.Field{domain.FieldPeriod, domain.FieldEntityID} {
		if _, ok := raw.Values[mapping[f]]; !ok {
			return fail(f, "", "missing required column")
		}
	}

	periodToken := raw.Values[mapping[domain.FieldPeriod]]
	period, err := ParsePeriod(periodToken)
	if err != nil {
		return fail(domain.FieldPeriod, periodToken, err.Error())
	}

	entityID := strings.ReplaceAll(raw.Values[mapping[domain.FieldEntityID]], " ", "")
	if entityID == "" {
		return fail(domain.FieldEntityID, "", "empty indicator id")
	}

	completed, err := ParseNullDecimal(raw.Values[mapping[domain.FieldCompletedOutputNumber]])
	if err != nil {
		return fail(domain.FieldCompletedOutputNumber, raw.Values[mapping[domain.FieldCompletedOutputNumber]], err.Error())
	}
	target, err := ParseNullDecimal(raw.Values[mapping[domain.FieldOutputTargetNumber]])
	if err != nil {
		return fail(domain.FieldOutputTargetNumber, raw.Values[mapping[domain.FieldOutputTargetNumber]], err.Error())
	}

	columns := make(map[domain.Field]string, len(mapping))
	for field, header := range mapping {
		if col, ok := raw.Columns[header]; ok {
			columns[field] = col
		}
	}

	return domain.QuarterRecord{
		EntityID:              entityID,
		Period:                period,
		PrimaryOutcomeArea:    raw.Values[mapping[domain.FieldPrimaryOutcomeArea]],
		IndicatorCategory:     raw.Values[mapping[domain.FieldIndicatorCategory]],
		IndicatorName:         raw.Values[mapping[domain.FieldIndicatorName]],
		IndicatorDescription:  raw.Values[mapping[domain.FieldIndicatorDescription]],
		CompletedOutputNumber: completed,
		OutputTargetNumber:    target,
		ProjectStatus:         raw.Values[mapping[domain.FieldProjectStatus]],
		ProgressNotes:         raw.Values[mapping[domain.FieldProgressNotes]],
		SupportingDocument:    raw.Values[mapping[domain.FieldSupportingDocument]],
		Source: domain.SourceRef{
			File:    raw.File,
			Sheet:   raw.Sheet,
			Row:     raw.Index,
			Columns: columns,
			Headers: mapping,
		},
	}, nil
}

// Normalizer rewrites raw cell values before they are parsed
type Normalizer interface {
	Normalize(header, value string) string
}

// SheetReader reads the RBMF tab of a workbook into raw rows
type SheetReader struct {
	sheetName  string
	mapping    ColumnMapping
	normalizer Normalizer
	logger     *slog.Logger
}

// NewSheetReader creates a reader. normalizer may be nil.
func NewSheetReader(sheetName string, mapping ColumnMapping, normalizer Normalizer, logger *slog.Logger) *SheetReader {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if mapping == nil {
		mapping = DefaultColumnMapping()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetReader{
		sheetName:  sheetName,
		mapping:    mapping,
		normalizer: normalizer,
		logger:     logger.With(slog.String("component", "sheet_reader")),
	}
}

// Mapping returns the column mapping the reader was built with
func (r *SheetReader) Mapping() ColumnMapping {
	return r.mapping
}

// ReadFile opens a workbook and returns its data rows. A workbook without the
// RBMF tab yields *MissingTabError.
func (r *SheetReader) ReadFile(path, displayName string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet, ok := r.findSheet(f)
	if !ok {
		return nil, &MissingTabError{File: displayName, Sheet: r.sheetName}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return r.rowsFromGrid(rows, displayName, sheet)
}

// findSheet tries the exact name first, then a trimmed case-insensitive match
func (r *SheetReader) findSheet(f *excelize.File) (string, bool) {
	list := f.GetSheetList()
	for _, name := range list {
		if name == r.sheetName {
			return name, true
		}
	}
	for _, name := range list {
		if strings.EqualFold(strings.TrimSpace(name), r.sheetName) {
			return name, true
		}
	}
	return "", false
}

func (r *SheetReader) rowsFromGrid(grid [][]string, file, sheet string) ([]RawRow, error) {
	headerIdx := r.findHeaderRow(grid)
	if headerIdx < 0 {
		r.logger.Warn("sheet has no rows", slog.String("file", file), slog.String("sheet", sheet))
		return nil, nil
	}

	header := grid[headerIdx]
	headers := make([]string, len(header))
	columns := make(map[string]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		headers[i] = h
		if h == "" {
			continue
		}
		if _, dup := columns[h]; dup {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		columns[h] = col
	}

	var out []RawRow
	for i := headerIdx + 1; i < len(grid); i++ {
		cells := grid[i]
		if isBlank(cells) {
			continue
		}
		values := make(map[string]string, len(headers))
		for c, h := range headers {
			if h == "" {
				continue
			}
			if _, seen := values[h]; seen {
				continue
			}
			v := ""
			if c < len(cells) {
				v = strings.TrimSpace(cells[c])
			}
			if r.normalizer != nil && v != "" {
				v = r.normalizer.Normalize(h, v)
			}
			values[h] = v
		}
		out = append(out, RawRow{
			File:    file,
			Sheet:   sheet,
			Index:   i + 1,
			Values:  values,
			Columns: columns,
		})
	}

	r.logger.Debug("sheet read",
		slog.String("file", file),
		slog.String("sheet", sheet),
		slog.Int("header_row", headerIdx+1),
		slog.Int("data_rows", len(out)))
	return out, nil
}

// findHeaderRow returns the first row naming the period column, falling back
// to the first non-blank row.
func (r *SheetReader) findHeaderRow(grid [][]string) int {
	want := r.mapping[domain.FieldPeriod]
	for i := 0; i < len(grid) && i < headerScanRows; i++ {
		for _, cell := range grid[i] {
			if strings.TrimSpace(cell) == want {
				return i
			}
		}
	}
	for i, row := range grid {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
