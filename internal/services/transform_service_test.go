package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/internal/config"
	apperrors "rbmfcli/internal/errors"
	"rbmfcli/internal/mapping"
	"rbmfcli/internal/shared/testutil"
)

// newTestService builds a service over a temp data dir holding the given
// collections, each with one workbook whose two quarters disagree on the
// outcome area
func newTestService(t *testing.T, collections ...string) (*TransformService, *config.Paths) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, c := range collections {
		dir := paths.CollectionDir(c)
		require.NoError(t, os.MkdirAll(dir, 0755))
		testutil.WriteRBMFWorkbook(t, dir, "a.xlsx",
			testutil.RBMFRow{ID: "IND 1", Period: "2024-1", Outcome: "Energy", Target: "10", Completed: "5", Status: "Active"},
			testutil.RBMFRow{ID: "IND 1", Period: "2024-2", Outcome: "Environment", Target: "10", Completed: "3", Status: "Active"},
		)
	}

	logger, _ := testutil.NewTestLogger(t)
	svc, err := NewTransformService(cfg, paths, nil, logger)
	require.NoError(t, err)
	return svc, paths
}

func TestTransformServiceAllCollections(t *testing.T) {
	svc, paths := newTestService(t, "2 PHY", "1 INO")

	names, err := svc.Collections()
	require.NoError(t, err)
	assert.Equal(t, []string{"1 INO", "2 PHY"}, names)

	outcome, err := svc.Transform(context.Background(), TransformOptions{})
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 2)
	assert.Nil(t, outcome.Errors)
	assert.Equal(t, "final", outcome.Mode)

	assert.FileExists(t, filepath.Join(paths.CollectionOutputDir("1 INO", false), "a.xlsx"))
	assert.FileExists(t, paths.ValidationLogPath("2 PHY"))
	assert.Equal(t, paths.ReportFile, outcome.ReportPath)

	data, err := os.ReadFile(outcome.ReportPath)
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.EqualValues(t, 2, report["created_files"])
	assert.EqualValues(t, 2, report["discrepancies"])

	resp := outcome.Response("trace-1")
	assert.Equal(t, 2, resp.Succeeded)
	require.Len(t, resp.Collections, 2)
	assert.Equal(t, "1 INO", resp.Collections[0].CollectionID)
	assert.Equal(t, 1, resp.Collections[0].Rows)
	assert.Len(t, resp.Collections[0].Outputs, 1)
}

func TestTransformServiceStepsAndCSV(t *testing.T) {
	svc, paths := newTestService(t, "1 INO")

	outcome, err := svc.Transform(context.Background(), TransformOptions{Folders: []string{"1 INO"}, Steps: true, CSV: true})
	require.NoError(t, err)
	assert.Equal(t, "steps", outcome.Mode)

	dir := paths.CollectionOutputDir("1 INO", true)
	assert.FileExists(t, filepath.Join(dir, "a.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "1 INO.csv"))
}

func TestTransformServiceInvalidCollections(t *testing.T) {
	svc, _ := newTestService(t, "1 INO")

	_, err := svc.Transform(context.Background(), TransformOptions{Folders: []string{"1 IN"}})
	var invalid *InvalidCollectionsError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Invalid, 1)
	assert.Equal(t, []string{"1 INO"}, invalid.Invalid[0].Suggestions)
	assert.Contains(t, err.Error(), "did you mean 1 INO?")

	var classified apperrors.Classified
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, apperrors.ErrTypeValidation, classified.ErrorType())
}

func TestTransformServicePartiallyValid(t *testing.T) {
	svc, _ := newTestService(t, "1 INO")

	outcome, err := svc.Transform(context.Background(), TransformOptions{Folders: []string{"1 INO", "nope"}})
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 1)
	require.Len(t, outcome.Invalid, 1)

	resp := outcome.Response("")
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, "not_found", resp.Collections[1].Status)
}

func TestTransformServiceNoCollections(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, os.MkdirAll(svc.Paths().DataDir, 0755))

	_, err := svc.Transform(context.Background(), TransformOptions{})
	assert.ErrorIs(t, err, ErrNoCollections)
}

func TestTransformServiceSingleRun(t *testing.T) {
	svc, _ := newTestService(t, "1 INO")
	svc.running.Lock()
	defer svc.running.Unlock()

	_, err := svc.Transform(context.Background(), TransformOptions{})
	assert.ErrorIs(t, err, ErrOperationRunning)
}

func TestTransformServiceCollectionLog(t *testing.T) {
	svc, paths := newTestService(t, "1 INO")

	_, _, err := svc.CollectionLog("1 INO")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.ErrorType())
	assert.True(t, errors.Is(err, ErrCollectionLogAbsent))
	assert.Contains(t, err.Error(), `validation log for "1 INO" not found`)

	_, err = svc.Transform(context.Background(), TransformOptions{Folders: []string{"1 INO"}})
	require.NoError(t, err)

	entries, text, err := svc.CollectionLog("1 INO")
	require.NoError(t, err)
	assert.Empty(t, text)
	require.Len(t, entries, 1)
	assert.Equal(t, "IND1", entries[0].EntityID)

	// a fresh process only has the file
	logger, _ := testutil.NewTestLogger(t)
	fresh, err := NewTransformService(config.Default(), paths, nil, logger)
	require.NoError(t, err)

	entries, text, err = fresh.CollectionLog("1 INO")
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.Contains(t, text, "Issue: Primary Outcome Area differs between quarters")
}

func TestTransformServiceAppliesValueMapping(t *testing.T) {
	_, paths := newTestService(t, "1 INO")

	data, err := json.Marshal([]mapping.ValueMapping{
		{Column: "Primary Outcome Area", OriginalValue: "Environment", NewValue: "Energy"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.ColumnMappingFile, data, 0644))

	logger, _ := testutil.NewTestLogger(t)
	mapped, err := NewTransformService(config.Default(), paths, nil, logger)
	require.NoError(t, err)

	outcome, err := mapped.Transform(context.Background(), TransformOptions{})
	require.NoError(t, err)
	assert.Empty(t, outcome.Results["1 INO"].Log)
}

func TestTransformServiceBadMappingFile(t *testing.T) {
	_, paths := newTestService(t)
	require.NoError(t, os.WriteFile(paths.ColumnMappingFile, []byte("{"), 0644))

	_, err := NewTransformService(config.Default(), paths, nil, nil)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.ErrorType())
}

func TestTransformServiceProjects(t *testing.T) {
	svc, _ := newTestService(t, "1 INO", "2 PHY")

	listing, err := svc.Projects(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.TotalProjects)
	assert.Equal(t, []string{"a.xlsx"}, listing.Folders["1 INO"].Projects)
}

func TestTransformServiceCollectionLogRejectsPaths(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"", "  ", "../etc", `a\b`, "a/b"} {
		_, _, err := svc.CollectionLog(name)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}
