package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/internal/shared/testutil"
	api "rbmfcli/pkg/contracts/api/v1"
)

// withBase points the global flags at a fresh base directory holding one
// collection, and returns the data directory
func withBase(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	oldBase, oldLevel := *baseDir, *logLevel
	*baseDir, *logLevel = base, "error"
	t.Cleanup(func() { *baseDir, *logLevel = oldBase, oldLevel })

	data := filepath.Join(base, "data")
	dir := filepath.Join(data, "1 INO")
	require.NoError(t, os.MkdirAll(dir, 0755))
	testutil.WriteRBMFWorkbook(t, dir, "a.xlsx",
		testutil.RBMFRow{ID: "IND 1", Period: "2024-1", Outcome: "Energy", Target: "10", Completed: "5", Status: "Active"},
		testutil.RBMFRow{ID: "IND 1", Period: "2024-3", Outcome: "Energy", Target: "12", Completed: "7", Status: "Completed"},
	)
	return data
}

func newFlagSet(args ...string) *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_ = fs.Parse(args)
	return fs
}

func TestSplitFolders(t *testing.T) {
	assert.Nil(t, splitFolders("", nil))
	assert.Equal(t, []string{"1 INO", "2 PHY", "3 VIE"}, splitFolders(" 1 INO , 2 PHY,,", []string{"3 VIE", " "}))
}

func TestTransformCmd(t *testing.T) {
	data := withBase(t)

	var out bytes.Buffer
	cmd := &transformCmd{out: &out, folders: "1 INO"}
	status := cmd.Execute(context.Background(), newFlagSet())

	require.Equal(t, subcommands.ExitSuccess, status, out.String())
	assert.Contains(t, out.String(), "Transformation completed (final)")
	assert.Contains(t, out.String(), "2 rows, 0 discrepancies, 1/1 files")
	assert.Contains(t, out.String(), "Report: ")
	assert.FileExists(t, filepath.Join(data, "2025-output", "1 INO", "final", "a.xlsx"))
}

func TestTransformCmdJSON(t *testing.T) {
	withBase(t)

	var out bytes.Buffer
	cmd := &transformCmd{out: &out, json: true, steps: true}
	require.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), newFlagSet()))

	var resp api.TransformResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "steps", resp.Mode)
	assert.Equal(t, 1, resp.Succeeded)
	assert.NotEmpty(t, resp.TraceID)
}

func TestTransformCmdUnknownFolder(t *testing.T) {
	withBase(t)

	var out bytes.Buffer
	cmd := &transformCmd{out: &out}
	status := cmd.Execute(context.Background(), newFlagSet("1 IN"))

	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, out.String(), `Collection "1 IN" not found. Did you mean: 1 INO?`)
	assert.Contains(t, out.String(), "Available collections: 1 INO")
}

func TestFoldersCmd(t *testing.T) {
	data := withBase(t)

	var out bytes.Buffer
	require.Equal(t, subcommands.ExitSuccess, (&foldersCmd{out: &out}).Execute(context.Background(), newFlagSet()))
	assert.Contains(t, out.String(), " 1. 1 INO\n")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, (&foldersCmd{out: &out, json: true}).Execute(context.Background(), newFlagSet()))
	var resp api.CollectionsResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, data, resp.DataDir)
	assert.Equal(t, []string{"1 INO"}, resp.Collections)
}

func TestProjectsCmd(t *testing.T) {
	data := withBase(t)

	var out bytes.Buffer
	cmd := &projectsCmd{out: &out, output: "output/project_names.json"}
	require.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), newFlagSet()))

	assert.Contains(t, out.String(), "1 INO: 1 projects")
	assert.Contains(t, out.String(), "Total projects: 1")

	raw, err := os.ReadFile(filepath.Join(data, "2025-output", "project_names.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"a.xlsx"`)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	require.Equal(t, subcommands.ExitSuccess, (&versionCmd{out: &out}).Execute(context.Background(), newFlagSet()))
	assert.Contains(t, out.String(), "rbmf-transformer ")
}

func TestRegister(t *testing.T) {
	commander := subcommands.NewCommander(flag.NewFlagSet("rbmf", flag.ContinueOnError), "rbmf")
	register(commander)

	var names []string
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		names = append(names, c.Name())
	})
	for _, want := range []string{"transform", "folders", "projects", "serve", "version"} {
		assert.Contains(t, names, want)
	}
}
