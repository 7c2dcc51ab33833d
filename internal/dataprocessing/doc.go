// Package dataprocessing turns quarterly RBMF rows into half-year records.
//
// # Architecture
//
// The package has four parts:
//
// 1. Parser: reads the RBMF tab of a workbook and normalizes rows into QuarterRecords
// 2. Checker: finds expected-constant fields whose value changes within a half
// 3. Aggregator: merges the quarters of one half into a HalfYearRecord
// 4. ValidationLog: collects discrepancy entries and renders them as text
//
// # Usage
//
//	reader := dataprocessing.NewSheetReader("RBMF", nil, nil, logger)
//	raw, err := reader.ReadFile(path, filepath.Base(path))
//	if err != nil {
//	    return err
//	}
//	var records []domain.QuarterRecord
//	for _, row := range raw {
//	    rec, err := dataprocessing.ParseRow(row, reader.Mapping())
//	    if err != nil {
//	        continue // row-level skip
//	    }
//	    records = append(records, rec)
//	}
//
//	log := dataprocessing.NewValidationLog()
//	agg := dataprocessing.NewAggregator(nil)
//	groups, _ := dataprocessing.GroupRecords(records)
//	for _, g := range groups {
//	    out, _ := agg.Aggregate(g, log)
//	    ...
//	}
//
// # Data Flow
//
//	Workbook → SheetReader → RawRow → ParseRow → QuarterRecord → GroupRecords → Aggregator → HalfYearRecord
//
// # Error Handling
//
// ParseError drops a single row, MissingTabError drops a whole file and
// CollectionNotFoundError aborts a collection. All three carry an error type
// that the HTTP layer maps to a status code.
//
// Numeric cells are decimal.NullDecimal. A blank cell is null and is never
// read as zero.
package dataprocessing
