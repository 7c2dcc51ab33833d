package exporter

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"rbmfcli/pkg/contracts/domain"
)

const (
	minColumnWidth = 15
	maxColumnWidth = 50
)

// rowCells renders a half-year row in the column order of table, which may
// carry the optional Project ID column after the standard ones
func rowCells(table domain.OutputTable, r domain.HalfYearRecord) []string {
	cells := r.Values()
	if len(table.Columns) > len(domain.OutputColumns) {
		cells = append(cells, r.ProjectID)
	}
	return cells
}

// numericCell returns the cell value for a nullable number. Null stays an
// empty cell, never zero.
func numericCell(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	f, _ := d.Decimal.Float64()
	return f
}

// columnWidth sizes a column to its longest cell, within fixed bounds
func columnWidth(header string, cells []string) float64 {
	longest := utf8.RuneCountInString(header)
	for _, c := range cells {
		if n := utf8.RuneCountInString(c); n > longest {
			longest = n
		}
	}
	w := longest + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}
