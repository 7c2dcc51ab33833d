package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// ProjectNotFound is stamped on rows whose source file has no project ID
const ProjectNotFound = "NOT FOUND"

// ProjectIndex resolves source files to project IDs from
// file_to_projectId_mapping.json:
//
//	{"folders": {"1 INO": {"mappings": {"a.xlsx": "P-001"}}}}
type ProjectIndex struct {
	doc    any
	logger *slog.Logger
}

// LoadProjectIndex reads the mapping file. A missing file yields an index that
// resolves every file to ProjectNotFound.
func LoadProjectIndex(path string, logger *slog.Logger) (*ProjectIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "project_index"))

	idx := &ProjectIndex{logger: logger}
	if path == "" {
		return idx, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("project mapping not found", slog.String("path", path))
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project mapping: %w", err)
	}
	if err := json.Unmarshal(data, &idx.doc); err != nil {
		return nil, fmt.Errorf("failed to parse project mapping %s: %w", path, err)
	}
	return idx, nil
}

// NewProjectIndex builds an index over an already decoded document
func NewProjectIndex(doc any, logger *slog.Logger) *ProjectIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectIndex{doc: doc, logger: logger.With(slog.String("component", "project_index"))}
}

// Lookup returns the project ID of file within folder. When the folder has no
// entry for the file, the other folders are searched in name order.
func (p *ProjectIndex) Lookup(folder, file string) string {
	if p.doc == nil {
		return ProjectNotFound
	}
	base := filepath.Base(file)

	if folder != "" {
		if id, ok := p.get(fmt.Sprintf("$.folders[%s].mappings[%s]", quote(folder), quote(base))); ok {
			return id
		}
	}
	for _, other := range p.folders() {
		if other == folder {
			continue
		}
		if id, ok := p.get(fmt.Sprintf("$.folders[%s].mappings[%s]", quote(other), quote(base))); ok {
			return id
		}
	}

	p.logger.Warn("project id not found", slog.String("folder", folder), slog.String("file", base))
	return ProjectNotFound
}

// folders returns the folder names of the mapping in sorted order
func (p *ProjectIndex) folders() []string {
	val, err := jsonpath.Get("$.folders", p.doc)
	if err != nil {
		return nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *ProjectIndex) get(path string) (string, bool) {
	val, err := jsonpath.Get(path, p.doc)
	if err != nil {
		return "", false
	}
	// keep the first answer if a list comes back
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return "", false
		}
		val = list[0]
	}
	switch v := val.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func quote(s string) string {
	return strconv.Quote(s)
}

// FolderProjects lists the project files of one folder
type FolderProjects struct {
	FolderName   string   `json:"folder_name"`
	ProjectCount int      `json:"project_count"`
	Projects     []string `json:"projects"`
}

// ProjectListing is written by the projects command
type ProjectListing struct {
	TotalProjects int                       `json:"total_projects"`
	Folders       map[string]FolderProjects `json:"folders"`
	Missing       []string                  `json:"missing_folders,omitempty"`
}

// ListProjects collects the project file names of each folder under dataDir.
// Hidden files and office lock files are skipped and names are sorted.
func ListProjects(dataDir string, folders []string) (*ProjectListing, error) {
	out := &ProjectListing{Folders: make(map[string]FolderProjects, len(folders))}
	for _, folder := range folders {
		entries, err := os.ReadDir(filepath.Join(dataDir, folder))
		if errors.Is(err, fs.ErrNotExist) {
			out.Missing = append(out.Missing, folder)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read folder %s: %w", folder, err)
		}

		projects := []string{}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
				continue
			}
			projects = append(projects, name)
		}
		sort.Strings(projects)

		out.Folders[folder] = FolderProjects{
			FolderName:   folder,
			ProjectCount: len(projects),
			Projects:     projects,
		}
		out.TotalProjects += len(projects)
	}
	return out, nil
}
