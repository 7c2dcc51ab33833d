package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFindExcelFiles(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "only Excel files",
			files:    []string{"report3.XLSX", "report1.xlsx", "report2.xlsx"},
			expected: []string{"report1.xlsx", "report2.xlsx", "report3.XLSX"},
		},
		{
			name:     "mixed file types",
			files:    []string{"report.xlsx", "data.csv", "doc.pdf", "legacy.xls"},
			expected: []string{"report.xlsx"},
		},
		{
			name:     "lock files skipped",
			files:    []string{"~$report.xlsx", "report.xlsx"},
			expected: []string{"report.xlsx"},
		},
		{
			name:  "empty directory",
			files: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f))
			}

			files, err := NewDiscovery(dir, nil).FindExcelFiles("")
			require.NoError(t, err)

			var names []string
			for _, f := range files {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindExcelFilesMissingDir(t *testing.T) {
	_, err := NewDiscovery(t.TempDir(), nil).FindExcelFiles("nope")
	assert.Error(t, err)
}

func newDataDir(t *testing.T) string {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "2 PHI", "b.xlsx"))
	touch(t, filepath.Join(dir, "1 INO", "a.xlsx"))
	touch(t, filepath.Join(dir, "3 VIE", "notes.txt"))
	touch(t, filepath.Join(dir, "2025-output", "1 INO", "final", "a.xlsx"))
	touch(t, filepath.Join(dir, "2025-output", "x.xlsx"))
	touch(t, filepath.Join(dir, ".cache", "c.xlsx"))
	touch(t, filepath.Join(dir, "5 Retainers", "r.xls"))
	touch(t, filepath.Join(dir, "loose.xlsx"))
	return dir
}

func TestListCollections(t *testing.T) {
	d := NewDiscovery(newDataDir(t), []string{"2025-output", "2025-output-final"})

	names, err := d.ListCollections()
	require.NoError(t, err)
	assert.Equal(t, []string{"1 INO", "2 PHI"}, names, "a folder of .xls files is not a collection")
}

func TestListCollectionsMissingDataDir(t *testing.T) {
	_, err := NewDiscovery(filepath.Join(t.TempDir(), "missing"), nil).ListCollections()
	assert.Error(t, err)
}

func TestValidateCollections(t *testing.T) {
	d := NewDiscovery(newDataDir(t), []string{"2025-output"})

	valid, invalid, err := d.ValidateCollections([]string{"1 INO", "INO", "2 PHY", "zzz"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1 INO"}, valid)
	require.Len(t, invalid, 3)
	assert.Equal(t, InvalidCollection{Name: "INO", Suggestions: []string{"1 INO"}}, invalid[0])
	assert.Equal(t, "2 PHY", invalid[1].Name)
	assert.Contains(t, invalid[1].Suggestions, "2 PHI")
	assert.Empty(t, invalid[2].Suggestions)
}

func TestSuggestSimilar(t *testing.T) {
	available := []string{"1 INO", "2 PHI", "3 VIE", "4 REG", "5 Retainers"}

	assert.Equal(t, []string{"5 Retainers"}, SuggestSimilar("retainers", available, 3))
	assert.Equal(t, []string{"4 REG"}, SuggestSimilar("4 RGE", available, 3))
	assert.Len(t, SuggestSimilar(" ", available, 3), 3, "capped at max")
	assert.Empty(t, SuggestSimilar("", available, 3))
}

func TestIsExcelFile(t *testing.T) {
	assert.True(t, IsExcelFile("a.xlsx"))
	assert.True(t, IsExcelFile("A.XLSX"))
	assert.False(t, IsExcelFile("legacy.xls"))
	assert.False(t, IsExcelFile("~$a.xlsx"))
	assert.False(t, IsExcelFile("a.csv"))
}
