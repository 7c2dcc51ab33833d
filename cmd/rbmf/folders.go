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
	api "rbmfcli/pkg/contracts/api/v1"
)

type foldersCmd struct {
	json bool

	out io.Writer
}

func (*foldersCmd) Name() string     { return "folders" }
func (*foldersCmd) Synopsis() string { return "list the collections of the data directory" }
func (*foldersCmd) Usage() string {
	return `rbmf folders [-json]

  Lists the folders of the data directory that hold Excel workbooks.
`
}

func (c *foldersCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the listing as JSON")
}

func (c *foldersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := stdout(c.out)

	s, err := loadSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	names, err := files.NewDiscovery(s.paths.DataDir, config.ExcludedFolders).ListCollections()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if names == nil {
		names = []string{}
	}

	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(api.CollectionsResponse{DataDir: s.paths.DataDir, Collections: names})
		return subcommands.ExitSuccess
	}

	if len(names) == 0 {
		fmt.Fprintf(out, "No folders with Excel files found in %s\n", s.paths.DataDir)
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(out, "Available folders in %s:\n", s.paths.DataDir)
	for i, name := range names {
		fmt.Fprintf(out, "%2d. %s\n", i+1, name)
	}
	return subcommands.ExitSuccess
}
