package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/xuri/excelize/v2"
)

// RBMFHeaders is the header row of a quarterly RBMF tab
var RBMFHeaders = []string{
	"Indicator_ID",
	"Reporting Year - Quarter",
	"Primary Outcome Area",
	"Result_Type_Data",
	"Indicators",
	"Project Output",
	"Output Target Number",
	"Completed Output Number",
	"Project Output Status",
	"Progress Notes/Comments",
	"Supporting Document",
}

// RBMFRow is one data row in RBMFHeaders order
type RBMFRow struct {
	ID        string
	Period    string
	Outcome   string
	Category  string
	Indicator string
	Output    string
	Target    string
	Completed string
	Status    string
	Notes     string
	Document  string
}

// Cells returns the row in header order
func (r RBMFRow) Cells() []string {
	return []string{r.ID, r.Period, r.Outcome, r.Category, r.Indicator, r.Output, r.Target, r.Completed, r.Status, r.Notes, r.Document}
}

// WriteRBMFWorkbook saves dir/name with an RBMF sheet holding the given rows
// and returns the file path.
func WriteRBMFWorkbook(t *testing.T, dir, name string, rows ...RBMFRow) string {
	t.Helper()
	data := [][]string{RBMFHeaders}
	for _, r := range rows {
		data = append(data, r.Cells())
	}
	path := filepath.Join(dir, name)
	WriteWorkbook(t, path, map[string][][]string{"RBMF": data})
	return path
}

// WriteWorkbook saves a workbook with one sheet per map entry, sheets in name order
func WriteWorkbook(t *testing.T, path string, sheets map[string][][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save temp workbook: %v", err)
	}
}
