package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"rbmfcli/internal/config"
	"rbmfcli/internal/infrastructure"
)

var (
	configFile = flag.String("config", "", "Path to a YAML config file (defaults to $RBMF_CONFIG or ./config.yaml)")
	baseDir    = flag.String("base", "", "Base directory relative paths resolve against (defaults to the working directory)")
	dataDir    = flag.String("data", "", "Data directory holding one folder per collection")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn or error")
)

// session is the configuration shared by every command
type session struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

// loadSession applies the global flags over the loaded configuration and
// creates the working directories. Logs go to logOut so command output on
// stdout stays clean.
func loadSession(logOut io.Writer) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if *baseDir != "" {
		cfg.Paths.BaseDir = *baseDir
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return &session{cfg: cfg, paths: paths, logger: logger}, nil
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
