package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"rbmfcli/internal/config"
	"rbmfcli/pkg/contracts"
)

type versionCmd struct {
	out io.Writer
}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "print version information" }
func (*versionCmd) Usage() string            { return "rbmf version\n" }
func (*versionCmd) SetFlags(f *flag.FlagSet) {}

func (c *versionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	info := contracts.GetVersionInfo()
	fmt.Fprintf(stdout(c.out), "%s %s (output format %s, commit %s, %s %s/%s)\n",
		config.AppName, info.Version, info.OutputFormat, info.GitCommit,
		info.GoVersion, info.OS, info.Arch)
	return subcommands.ExitSuccess
}
