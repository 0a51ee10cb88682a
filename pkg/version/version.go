package version

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
)

// FallbackVersion is reported when no release metadata is available.
const FallbackVersion = "0.0.1"

// ErrNoMetadata is returned by Metadata when the binary carries no release version.
var ErrNoMetadata = errors.New("version metadata unavailable")

// Build information. These variables are set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
	OS        = runtime.GOOS
	Arch      = runtime.GOARCH
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info contains version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo returns the version information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        OS,
		Arch:      Arch,
	}
}

// Metadata resolves the release version of the running binary. The ldflags
// value wins; otherwise the main module version from the embedded build
// info is used. Development builds have neither and return ErrNoMetadata.
func Metadata() (string, error) {
	if Version != "" && Version != "dev" {
		return Version, nil
	}

	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "", ErrNoMetadata
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v, nil
	}
	return "", ErrNoMetadata
}

// MetadataOrFallback returns Metadata or FallbackVersion.
func MetadataOrFallback() string {
	v, err := Metadata()
	if err != nil {
		return FallbackVersion
	}
	return v
}

// String returns the version string.
func (i Info) String() string {
	return fmt.Sprintf("Webulator %s (commit: %s, built: %s, go: %s, os/arch: %s/%s)",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.OS, i.Arch)
}

// Short returns a short version string.
func (i Info) Short() string {
	return fmt.Sprintf("Webulator %s", i.Version)
}
