package exporter

import (
	"bytes"
	"fmt"

	"rbmfcli/internal/dataprocessing"
	"rbmfcli/internal/files"
	"rbmfcli/pkg/contracts/domain"
)

// WriteValidationLog renders entries in the validation log format and
// writes them to path. An empty log still produces an empty file, so a
// rerun without conflicts replaces the previous log.
func WriteValidationLog(fm *files.Manager, path string, entries []domain.DiscrepancyEntry) error {
	var buf bytes.Buffer
	if err := dataprocessing.RenderEntries(&buf, entries); err != nil {
		return fmt.Errorf("failed to render validation log: %w", err)
	}
	if err := fm.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
