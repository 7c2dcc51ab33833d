package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. RBMF_PATHS_DATA_DIR
const EnvPrefix = "RBMF"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Transform TransformConfig `yaml:"transform" envconfig:"TRANSFORM"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// upper bound for one POST /transform run
	OperationTimeout time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"` // console, file or both
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir            string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir            string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir          string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir            string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ColumnMappingFile  string `yaml:"column_mapping_file" envconfig:"COLUMN_MAPPING_FILE"`
	ProjectMappingFile string `yaml:"project_mapping_file" envconfig:"PROJECT_MAPPING_FILE"`
}

// TransformConfig controls the transformation engine
type TransformConfig struct {
	SheetName        string            `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	Steps            bool              `yaml:"steps" envconfig:"STEPS"`
	Parallelism      int               `yaml:"parallelism" envconfig:"PARALLELISM"`
	FuzzyThreshold   int               `yaml:"fuzzy_threshold" envconfig:"FUZZY_THRESHOLD"`
	IncludeProjectID bool              `yaml:"include_project_id" envconfig:"INCLUDE_PROJECT_ID"`
	WriteCSV         bool              `yaml:"write_csv" envconfig:"WRITE_CSV"`
	Columns          map[string]string `yaml:"columns" envconfig:"COLUMNS"` // field -> source header overrides
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName  string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	StdoutTraces bool   `yaml:"stdout_traces" envconfig:"STDOUT_TRACES"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file; an empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Transform.Parallelism < 1 {
		return fmt.Errorf("transform parallelism must be at least 1, got %d", c.Transform.Parallelism)
	}
	if c.Transform.FuzzyThreshold < 0 || c.Transform.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be within 0-100, got %d", c.Transform.FuzzyThreshold)
	}
	if strings.TrimSpace(c.Transform.SheetName) == "" {
		return fmt.Errorf("transform sheet name must not be empty")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/rbmf.log"
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst")
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      60 * time.Second,
			ShutdownTimeout:  30 * time.Second,
			OperationTimeout: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     DefaultRateLimit,
			Burst:   DefaultBurstSize,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/rbmf.log",
		},
		Paths: PathsConfig{
			DataDir:            DefaultDataDir,
			OutputDir:          "",
			LogsDir:            DefaultLogsDir,
			ColumnMappingFile:  ColumnMappingFileName,
			ProjectMappingFile: ProjectMappingFileName,
		},
		Transform: TransformConfig{
			SheetName:      DefaultSheetName,
			Parallelism:    1,
			FuzzyThreshold: DefaultFuzzyThreshold,
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: AppName,
		},
	}
}
