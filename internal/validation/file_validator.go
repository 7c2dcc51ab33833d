package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotDirectory is returned when an input path exists but is a file
var ErrNotDirectory = errors.New("not a directory")

// ErrNotWorkbook is returned for files that cannot be an Excel workbook
var ErrNotWorkbook = errors.New("not an excel workbook")

// ErrLegacyWorkbook is returned for BIFF .xls workbooks, which must be
// re-saved as .xlsx before they can be read
var ErrLegacyWorkbook = fmt.Errorf("legacy .xls workbook: %w", ErrNotWorkbook)

// FileValidator checks input directories and workbooks before they are read
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that the input directory exists. Missing
// directories yield an error wrapping fs.ErrNotExist.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist: %w", dir, fs.ErrNotExist)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist: %w", path, fs.ErrNotExist)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile checks that path is a readable .xlsx workbook: the right
// extension, not an office lock file, and zip content as detected by
// mimetype.
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xls" {
		v.logger.Warn("Legacy .xls workbooks are not supported",
			slog.String("file", path))
		return fmt.Errorf("file %s: %w", path, ErrLegacyWorkbook)
	}
	if ext != ".xlsx" {
		v.logger.Error("File is not an Excel file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s has extension %q: %w", path, ext, ErrNotWorkbook)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file: %w", path, ErrNotWorkbook)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !isZipContent(mtype) {
		v.logger.Warn("File content is not a workbook",
			slog.String("file", path),
			slog.String("mime", mtype.String()))
		if mtype.Is(oleMime) || mtype.Is(xlsMime) {
			return fmt.Errorf("file %s: %w", path, ErrLegacyWorkbook)
		}
		return fmt.Errorf("file %s is %s: %w", path, mtype.String(), ErrNotWorkbook)
	}
	return nil
}

const (
	zipMime  = "application/zip"
	xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsMime  = "application/vnd.ms-excel"
	oleMime  = "application/x-ole-storage"
)

// isZipContent accepts the xlsx type and any other zip container
func isZipContent(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is(xlsxMime) || m.Is(zipMime) {
			return true
		}
	}
	return false
}
