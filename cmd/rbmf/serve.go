package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"rbmfcli/internal/app"
	"rbmfcli/internal/infrastructure"
)

type serveCmd struct {
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the transformation HTTP API" }
func (*serveCmd) Usage() string {
	return `rbmf serve [-port <port>]

  Starts the HTTP API and serves until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Port to listen on (default from configuration)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadSession(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer infrastructure.CloseLogFile()

	if c.port > 0 {
		s.cfg.Server.Port = c.port
	}

	application, err := app.NewApplication(s.cfg, s.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := application.Run(ctx); err != nil {
		s.logger.Error("server stopped with error", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
