// Package version identifies a gentoostats build: the --version banner, the
// tool entry of generated SBOMs and the User-Agent of submissions.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Release builds stamp these with
// -ldflags "-X github.com/gg7/gentoostats/internal/version.Version=v1.0.0 ...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const shortCommit = 12

var readBuildInfo = debug.ReadBuildInfo

// GetVersion returns the release version. Without ldflags it falls back to
// the module version recorded by `go install`, then to "dev".
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// buildStamp returns the commit and build date. Values left at their
// defaults are taken from the VCS stamp of the build info, if any.
func buildStamp() (commit, date string) {
	commit, date = Commit, Date
	info, ok := readBuildInfo()
	if !ok {
		return commit, date
	}

	var revision, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			if date == "unknown" {
				date = s.Value
			}
		case "vcs.modified":
			modified = s.Value
		}
	}
	if commit == "none" && revision != "" {
		commit = revision
		if len(commit) > shortCommit {
			commit = commit[:shortCommit]
		}
		if modified == "true" {
			commit += "-dirty"
		}
	}
	return commit, date
}

// Banner renders the --version output of program.
func Banner(program string) string {
	commit, date := buildStamp()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", program, GetVersion())
	fmt.Fprintf(&sb, "  commit: %s\n", commit)
	fmt.Fprintf(&sb, "  built:  %s\n", date)
	fmt.Fprintf(&sb, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return sb.String()
}

// UserAgent returns the HTTP User-Agent sent with submissions, for example
// "gentoostats/v1.2.0 (linux/amd64)".
func UserAgent() string {
	return fmt.Sprintf("gentoostats/%s (%s/%s)", GetVersion(), runtime.GOOS, runtime.GOARCH)
}
