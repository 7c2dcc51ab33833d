package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery finds collections and workbooks under a data directory
type Discovery struct {
	basePath string
	excluded map[string]bool
}

// NewDiscovery creates a discovery rooted at basePath. excluded names are
// never reported as collections.
func NewDiscovery(basePath string, excluded []string) *Discovery {
	ex := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		ex[name] = true
	}
	return &Discovery{basePath: basePath, excluded: ex}
}

// IsExcelFile reports whether name is an .xlsx workbook and not an office
// lock file. Legacy .xls files are not read.
func IsExcelFile(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// FindExcelFiles finds the workbooks in dir, sorted by name
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsExcelFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}
	return dirs, nil
}

// ListCollections returns the sorted names of the data directory's folders
// that hold at least one workbook. Hidden and excluded folders are skipped.
func (d *Discovery) ListCollections() ([]string, error) {
	dirs, err := d.ListDirectories("")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, dir := range dirs {
		if strings.HasPrefix(dir.Name, ".") || d.excluded[dir.Name] {
			continue
		}
		files, err := d.FindExcelFiles(dir.Path)
		if err != nil || len(files) == 0 {
			continue
		}
		names = append(names, dir.Name)
	}
	sort.Strings(names)
	return names, nil
}

// InvalidCollection is a requested name that is not a collection
type InvalidCollection struct {
	Name        string   `json:"name"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ValidateCollections splits requested names into known collections and
// unknown ones; unknown names carry up to three suggestions.
func (d *Discovery) ValidateCollections(requested []string) (valid []string, invalid []InvalidCollection, err error) {
	available, err := d.ListCollections()
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]bool, len(available))
	for _, name := range available {
		known[name] = true
	}

	for _, name := range requested {
		if known[name] {
			valid = append(valid, name)
			continue
		}
		invalid = append(invalid, InvalidCollection{Name: name, Suggestions: SuggestSimilar(name, available, 3)})
	}
	return valid, invalid, nil
}

// SuggestSimilar returns up to max names from available that look like
// target: a case-insensitive substring either way, or a length within two
// characters whose distinct shared characters number at least 60% of the
// target's length.
func SuggestSimilar(target string, available []string, max int) []string {
	t := strings.ToLower(target)
	var out []string
	for _, name := range available {
		if len(out) >= max {
			break
		}
		n := strings.ToLower(name)
		if t == "" {
			continue
		}
		if strings.Contains(n, t) || strings.Contains(t, n) {
			out = append(out, name)
			continue
		}
		if abs(len(n)-len(t)) <= 2 && float64(sharedChars(t, n)) >= 0.6*float64(len([]rune(t))) {
			out = append(out, name)
		}
	}
	return out
}

// sharedChars counts the distinct characters present in both a and b
func sharedChars(a, b string) int {
	inB := make(map[rune]bool)
	for _, r := range b {
		inB[r] = true
	}
	seen := make(map[rune]bool)
	common := 0
	for _, r := range a {
		if inB[r] && !seen[r] {
			common++
		}
		seen[r] = true
	}
	return common
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
