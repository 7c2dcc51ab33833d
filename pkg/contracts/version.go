package contracts

import "runtime"

const (
	// Version is the release of the transformer
	Version = "1.2.0"

	// OutputFormatVersion changes whenever the half-year table layout or the
	// validation log format changes
	OutputFormatVersion = "v1"

	// APIVersion is the version of the HTTP API
	APIVersion = "v1"
)

// Set with -ldflags "-X rbmfcli/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is reported by "rbmf version" and GET /api/v1/version
type VersionInfo struct {
	Version      string `json:"version"`
	OutputFormat string `json:"output_format"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
}

// GetVersionInfo describes the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		OutputFormat: OutputFormatVersion,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
	}
}
