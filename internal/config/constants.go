package config

// Application constants
const (
	AppName = "rbmf-transformer"

	// Input and output layout
	DefaultDataDir         = "data"
	DefaultLogsDir         = "logs"
	DefaultOutputDirName   = "2025-output"
	DefaultSheetName       = "RBMF"
	ColumnMappingFileName  = "column_mapping.json"
	ProjectMappingFileName = "file_to_projectId_mapping.json"
	ReportFileName         = "transformation_report.json"
	ValidationLogSuffix    = "_validation.log"

	// Output mode subdirectories
	FinalDirName = "final"
	StepsDirName = "steps"

	DefaultFuzzyThreshold = 90

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40
)

// ExcludedFolders are never offered as collections
var ExcludedFolders = []string{
	"2025-output",
	"2025-output-final",
	".git",
	"__pycache__",
	".pytest_cache",
	"node_modules",
	".vscode",
	".idea",
}
