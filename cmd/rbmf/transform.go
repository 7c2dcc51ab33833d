package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"rbmfcli/internal/infrastructure"
	"rbmfcli/internal/operations"
	"rbmfcli/internal/services"
)

type transformCmd struct {
	folders string
	steps   bool
	csv     bool
	json    bool

	out io.Writer
}

func (*transformCmd) Name() string     { return "transform" }
func (*transformCmd) Synopsis() string { return "aggregate quarterly RBMF workbooks into half-year rows" }
func (*transformCmd) Usage() string {
	return `rbmf transform [-steps] [-csv] [-json] [-folders "<a>,<b>"] [<folder>...]

  Transforms every collection of the data directory, or only the named
  ones. Unknown names are reported with suggestions.
`
}

func (c *transformCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.folders, "folders", "", "Comma-separated collection folders to transform (default: all)")
	f.BoolVar(&c.steps, "steps", false, "Also write the intermediate RBMF_1 and RBMF_2 tabs")
	f.BoolVar(&c.csv, "csv", false, "Also write a combined CSV per collection")
	f.BoolVar(&c.json, "json", false, "Print the outcome as JSON")
}

func (c *transformCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := stdout(c.out)

	s, err := loadSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	svc, err := services.NewTransformService(s.cfg, s.paths, operations.NewNoopPipelineTracer(), s.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	opts := services.TransformOptions{
		Folders: splitFolders(c.folders, f.Args()),
		Steps:   c.steps || s.cfg.Transform.Steps,
		CSV:     c.csv,
	}

	outcome, err := svc.Transform(ctx, opts)
	var invalid *services.InvalidCollectionsError
	switch {
	case errors.As(err, &invalid):
		for _, inv := range invalid.Invalid {
			fmt.Fprintf(out, "Collection %q not found.", inv.Name)
			if len(inv.Suggestions) > 0 {
				fmt.Fprintf(out, " Did you mean: %s?", strings.Join(inv.Suggestions, ", "))
			}
			fmt.Fprintln(out)
		}
		if names, lerr := svc.Collections(); lerr == nil {
			fmt.Fprintf(out, "Available collections: %s\n", strings.Join(names, ", "))
		}
		return subcommands.ExitFailure
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	resp := outcome.Response(infrastructure.GenerateTraceID())
	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		fmt.Fprintf(out, "Transformation completed (%s) in %s\n", resp.Mode, outcome.Duration.Round(time.Millisecond))
		for _, co := range resp.Collections {
			switch co.Status {
			case "completed":
				fmt.Fprintf(out, "  %-20s %d rows, %d discrepancies, %d/%d files\n",
					co.CollectionID, co.Rows, co.Discrepancies, co.Summary.FilesProcessed, co.Summary.FilesSeen)
			default:
				fmt.Fprintf(out, "  %-20s %s: %s\n", co.CollectionID, co.Status, co.Error)
			}
		}
		fmt.Fprintf(out, "Files created: %d, failed: %d\n", outcome.Report.CreatedFiles, outcome.Report.FailedFiles)
		if outcome.ReportPath != "" {
			fmt.Fprintf(out, "Report: %s\n", outcome.ReportPath)
		}
	}

	if resp.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// splitFolders merges the -folders list with positional arguments
func splitFolders(list string, args []string) []string {
	var folders []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			folders = append(folders, name)
		}
	}
	for _, name := range args {
		if name = strings.TrimSpace(name); name != "" {
			folders = append(folders, name)
		}
	}
	return folders
}
