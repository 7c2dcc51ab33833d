package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/internal/config"
)

func newManager(t *testing.T) (*Manager, *config.Paths) {
	t.Helper()
	base := t.TempDir()
	paths := &config.Paths{
		BaseDir:   base,
		DataDir:   filepath.Join(base, "data"),
		OutputDir: filepath.Join(base, "data", "2025-output"),
		LogsDir:   filepath.Join(base, "logs"),
	}
	return NewManager(paths, nil), paths
}

func TestManagerResolvePath(t *testing.T) {
	m, paths := newManager(t)

	assert.Equal(t, filepath.Join(paths.OutputDir, "a", "b.log"), m.resolvePath("output/a/b.log"))
	assert.Equal(t, filepath.Join(paths.LogsDir, "app.log"), m.resolvePath("logs/app.log"))
	assert.Equal(t, filepath.Join(paths.DataDir, "1 INO"), m.resolvePath("1 INO"))
	assert.Equal(t, "/abs/x", m.resolvePath("/abs/x"))
}

func TestManagerWriteAndRead(t *testing.T) {
	m, paths := newManager(t)

	require.NoError(t, m.WriteFile("output/1 INO/report.json", []byte(`{}`)))
	assert.FileExists(t, filepath.Join(paths.OutputDir, "1 INO", "report.json"))
	assert.NoFileExists(t, filepath.Join(paths.OutputDir, "1 INO", "report.json.tmp"))
	assert.True(t, m.FileExists("output/1 INO/report.json"))

	data, err := m.ReadFile("output/1 INO/report.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	files, err := m.ListFiles("output/1 INO")
	require.NoError(t, err)
	assert.Equal(t, []string{"report.json"}, files)
}

func TestManagerPrepareOutputDirectory(t *testing.T) {
	m, paths := newManager(t)
	dir := filepath.Join(paths.OutputDir, "1 INO", "final")

	touch(t, filepath.Join(dir, "old.xlsx"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keep"), 0755))

	require.NoError(t, m.PrepareOutputDirectory(dir))
	assert.NoFileExists(t, filepath.Join(dir, "old.xlsx"))
	assert.DirExists(t, filepath.Join(dir, "keep"))

	fresh := filepath.Join(paths.OutputDir, "2 PHI", "steps")
	require.NoError(t, m.PrepareOutputDirectory(fresh))
	assert.DirExists(t, fresh)
}

func TestManagerEnsureDirectory(t *testing.T) {
	m, paths := newManager(t)
	require.NoError(t, m.EnsureDirectory("logs/"))
	assert.DirExists(t, paths.LogsDir)
}
