// Command rbmf turns quarterly RBMF workbooks into half-year aggregates.
//
//	rbmf transform [-steps] [-csv] [-folders "1 INO,2 PHY"]
//	rbmf folders
//	rbmf projects [-o projects.json]
//	rbmf serve [-port 8080]
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&transformCmd{}, "transformation")
	c.Register(&foldersCmd{}, "transformation")
	c.Register(&projectsCmd{}, "transformation")

	c.Register(&serveCmd{}, "service")
	c.Register(&versionCmd{}, "service")
}
