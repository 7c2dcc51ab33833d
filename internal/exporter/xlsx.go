package exporter

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"rbmfcli/pkg/contracts/domain"
)

// Sheet names of an output workbook
const (
	SheetFinal   = "RBMF"
	SheetQuarter = "RBMF_1"
	SheetHalf    = "RBMF_2"
)

// quarterColumns are the RBMF_1 headers: the parsed quarter rows with the
// derived Year, Quarter and Half Year columns
var quarterColumns = []string{
	"Indicator_ID",
	"Reporting Year - Quarter",
	"Year",
	"Quarter",
	"Half Year",
	"Primary Outcome Area",
	"Result_Type_Data",
	"Indicators",
	"Project Output",
	"Output Target Number",
	"Completed Output Number",
	"Project Output Status",
	"Progress Notes/Comments",
	"Supporting Document",
	"Source Row",
}

// WorkbookSheets is the content of one output workbook
type WorkbookSheets struct {
	Table    domain.OutputTable      // columns of the final sheet
	Rows     []domain.HalfYearRecord // rows of this source file
	Quarters []domain.QuarterRecord  // steps mode only
	Steps    bool
}

// WorkbookWriter renders output workbooks with excelize
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Render builds the workbook and returns its bytes. The final RBMF sheet is
// always present; steps mode puts RBMF_1 and RBMF_2 in front of it.
func (w *WorkbookWriter) Render(content WorkbookSheets) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	var sheets []sheetSpec
	if content.Steps {
		sheets = append(sheets, quarterSheet(content.Quarters), halfSheet(content.Rows))
	}
	sheets = append(sheets, finalSheet(content.Table, content.Rows))

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	if idx, err := f.GetSheetIndex(SheetFinal); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Debug("workbook rendered",
		slog.Int("rows", len(content.Rows)),
		slog.Int("quarter_rows", len(content.Quarters)),
		slog.Bool("steps", content.Steps))
	return buf.Bytes(), nil
}

type sheetSpec struct {
	name   string
	header []string
	rows   [][]interface{}
	text   [][]string // display text, for column widths
}

func (s *sheetSpec) add(text []string, cells []interface{}) {
	s.text = append(s.text, text)
	s.rows = append(s.rows, cells)
}

func finalSheet(table domain.OutputTable, rows []domain.HalfYearRecord) sheetSpec {
	s := sheetSpec{name: SheetFinal, header: table.Columns}
	for _, r := range rows {
		text := rowCells(table, r)
		cells := make([]interface{}, len(text))
		for i, v := range text {
			cells[i] = v
		}
		// numbers stay numeric in the workbook
		cells[2] = numericCell(r.PeriodicalTarget)
		cells[3] = numericCell(r.PeriodicalResult)
		s.add(text, cells)
	}
	return s
}

func quarterSheet(records []domain.QuarterRecord) sheetSpec {
	s := sheetSpec{name: SheetQuarter, header: quarterColumns}
	for _, q := range records {
		text := []string{
			q.EntityID,
			fmt.Sprintf("%d-%d", q.Period.Year, q.Period.Quarter),
			strconv.Itoa(q.Period.Year),
			strconv.Itoa(q.Period.Quarter),
			q.Period.Half().String(),
			q.PrimaryOutcomeArea,
			q.IndicatorCategory,
			q.IndicatorName,
			q.IndicatorDescription,
			domain.FormatNullDecimal(q.OutputTargetNumber),
			domain.FormatNullDecimal(q.CompletedOutputNumber),
			q.ProjectStatus,
			q.ProgressNotes,
			q.SupportingDocument,
			strconv.Itoa(q.Source.Row),
		}
		cells := make([]interface{}, len(text))
		for i, v := range text {
			cells[i] = v
		}
		cells[2] = q.Period.Year
		cells[3] = q.Period.Quarter
		cells[9] = numericCell(q.OutputTargetNumber)
		cells[10] = numericCell(q.CompletedOutputNumber)
		cells[14] = q.Source.Row
		s.add(text, cells)
	}
	return s
}

func halfSheet(rows []domain.HalfYearRecord) sheetSpec {
	header := append([]string{"Indicator_ID", "Half Year", "Quarters"}, domain.OutputColumns...)
	s := sheetSpec{name: SheetHalf, header: header}
	for _, r := range rows {
		quarters := ""
		for i, q := range r.Quarters {
			if i > 0 {
				quarters += ","
			}
			quarters += "Q" + strconv.Itoa(q)
		}
		text := append([]string{r.EntityID, r.HalfYear.String(), quarters}, r.Values()...)
		cells := make([]interface{}, len(text))
		for i, v := range text {
			cells[i] = v
		}
		cells[5] = numericCell(r.PeriodicalTarget)
		cells[6] = numericCell(r.PeriodicalResult)
		s.add(text, cells)
	}
	return s
}

// writeSheet writes header and rows, then applies the bold header, the
// autofilter and the column widths
func writeSheet(f *excelize.File, s sheetSpec, bold int) error {
	header := make([]interface{}, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	if len(s.header) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last+"1", bold); err != nil {
		return err
	}
	lastRow := len(s.rows) + 1
	if err := f.AutoFilter(s.name, fmt.Sprintf("A1:%s%d", last, lastRow), nil); err != nil {
		return err
	}

	for c, h := range s.header {
		col, _ := excelize.ColumnNumberToName(c + 1)
		cells := make([]string, 0, len(s.text))
		for _, row := range s.text {
			if c < len(row) {
				cells = append(cells, row[c])
			}
		}
		if err := f.SetColWidth(s.name, col, col, columnWidth(h, cells)); err != nil {
			return err
		}
	}
	return nil
}
