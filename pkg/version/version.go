package version

import (
	"fmt"
	"runtime"

	"github.com/zsiec/chrono/pkg/fps"
)

// Name is the product name reported by every binary.
const Name = "chrono"

// Build information. These variables are set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
	OS        = runtime.GOOS
	Arch      = runtime.GOARCH
)

// Info contains version information and the frame rates this build supports.
type Info struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit"`
	BuildTime string   `json:"build_time"`
	GoVersion string   `json:"go_version"`
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	Rates     []string `json:"frame_rates"`
}

// GetInfo returns the version information.
func GetInfo() Info {
	all := fps.All()
	rates := make([]string, 0, len(all))
	for _, r := range all {
		rates = append(rates, r.String())
	}

	return Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        OS,
		Arch:      Arch,
		Rates:     rates,
	}
}

// String returns the long version string.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s, os/arch: %s/%s)",
		i.Name, i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.OS, i.Arch)
}

// Short returns "<name> <version>".
func (i Info) Short() string {
	return fmt.Sprintf("%s %s", i.Name, i.Version)
}
