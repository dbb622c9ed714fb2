// Package version reports build information for the devkit binary and the
// User-Agent it sends on outbound requests.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	BuildTime time.Time `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Dirty     bool      `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// These variables are set at build time using -ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Get returns the build information of the running binary. Values injected
// with -ldflags win over those recorded by the Go toolchain.
func Get() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildTime = t
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if (info.Version == "" || info.Version == "dev") && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" || info.GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.time":
			if info.BuildTime.IsZero() {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					info.BuildTime = t
				}
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}

	return info
}

// Short returns a one-line version such as "1.2.0 (a1b2c3d)".
func (b *BuildInfo) Short() string {
	if len(b.GitCommit) >= 7 && b.GitCommit != "unknown" {
		return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
	}

	return b.Version
}

// UserAgent is sent with remote document fetches and GitHub API calls.
func UserAgent() string {
	return "devkit/" + Get().Version
}
