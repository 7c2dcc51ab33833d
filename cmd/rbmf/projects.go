package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"rbmfcli/internal/config"
	"rbmfcli/internal/files"
	"rbmfcli/internal/mapping"
)

type projectsCmd struct {
	output  string
	folders string

	out io.Writer
}

func (*projectsCmd) Name() string     { return "projects" }
func (*projectsCmd) Synopsis() string { return "list the project workbooks of each collection" }
func (*projectsCmd) Usage() string {
	return `rbmf projects [-o <file>] [-folders "<a>,<b>"]

  Lists the workbook names of each collection folder and saves the listing
  as JSON. Relative output paths starting with "output/" are written to the
  output directory.
`
}

func (c *projectsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "output/project_names.json", "File the JSON listing is written to")
	f.StringVar(&c.folders, "folders", "", "Comma-separated folders to list (default: every collection)")
}

func (c *projectsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := stdout(c.out)

	s, err := loadSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	folders := splitFolders(c.folders, f.Args())
	if len(folders) == 0 {
		folders, err = files.NewDiscovery(s.paths.DataDir, config.ExcludedFolders).ListCollections()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	listing, err := mapping.ListProjects(s.paths.DataDir, folders)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(listing.Missing) > 0 {
		s.logger.Warn("missing folders", "folders", listing.Missing)
	}

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.output != "" {
		if err := files.NewManager(s.paths, s.logger).WriteFile(c.output, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	for _, folder := range folders {
		if fp, ok := listing.Folders[folder]; ok {
			fmt.Fprintf(out, "%s: %d projects\n", folder, len(fp.Projects))
		}
	}
	fmt.Fprintf(out, "Total projects: %d\n", listing.TotalProjects)
	return subcommands.ExitSuccess
}
