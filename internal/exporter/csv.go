package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"

	"rbmfcli/internal/files"
	"rbmfcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(fm *files.Manager, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{files: fm, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options. Paths are
// resolved by the file manager, so "output/..." lands in the output directory.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	data, err := EncodeCSV(options)
	if err != nil {
		return err
	}

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	return w.files.WriteFile(filePath, data)
}

// WriteTable writes an output table with a leading Source File column
func (w *CSVWriter) WriteTable(filePath string, table domain.OutputTable) error {
	headers := append([]string{"Source File"}, table.Columns...)
	records := make([][]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		records = append(records, append([]string{r.SourceFile}, rowCells(table, r)...))
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// EncodeCSV renders headers and records as CSV bytes
func EncodeCSV(options WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if options.BOMPrefix {
		buf.Write(utf8BOM)
	}

	writer := csv.NewWriter(&buf)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
