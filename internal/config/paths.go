package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the resolved application paths.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string

	// Mapping files, read if present
	ColumnMappingFile  string
	ProjectMappingFile string

	// Well-known output files
	ReportFile string
}

// ResolvePaths turns the configured paths into absolute ones. The output
// directory defaults to <data>/2025-output and the mapping files live in it
// unless configured otherwise.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	abs := func(root, p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}

	p := &Paths{BaseDir: base}
	p.DataDir = abs(base, orDefault(c.Paths.DataDir, DefaultDataDir))
	p.LogsDir = abs(base, orDefault(c.Paths.LogsDir, DefaultLogsDir))
	if c.Paths.OutputDir == "" {
		p.OutputDir = filepath.Join(p.DataDir, DefaultOutputDirName)
	} else {
		p.OutputDir = abs(base, c.Paths.OutputDir)
	}
	p.ColumnMappingFile = abs(p.OutputDir, orDefault(c.Paths.ColumnMappingFile, ColumnMappingFileName))
	p.ProjectMappingFile = abs(p.OutputDir, orDefault(c.Paths.ProjectMappingFile, ProjectMappingFileName))
	p.ReportFile = filepath.Join(p.OutputDir, ReportFileName)
	return p, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// EnsureDirectories creates the output and logs directories. The data
// directory is input and is never created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// CollectionDir returns the input directory of a collection
func (p *Paths) CollectionDir(collection string) string {
	return filepath.Join(p.DataDir, collection)
}

// CollectionOutputDir returns <output>/<collection>/final, or steps/ in steps mode
func (p *Paths) CollectionOutputDir(collection string, steps bool) string {
	mode := FinalDirName
	if steps {
		mode = StepsDirName
	}
	return filepath.Join(p.OutputDir, collection, mode)
}

// ValidationLogPath returns <output>/<collection>/<collection>_validation.log
func (p *Paths) ValidationLogPath(collection string) string {
	return filepath.Join(p.OutputDir, collection, collection+ValidationLogSuffix)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("mapping_files",
			slog.String("column_mapping", p.ColumnMappingFile),
			slog.Bool("column_mapping_exists", FileExists(p.ColumnMappingFile)),
			slog.String("project_mapping", p.ProjectMappingFile),
			slog.Bool("project_mapping_exists", FileExists(p.ProjectMappingFile)),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
