package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

// stamp sets the ldflags variables and the build info for one test.
func stamp(t *testing.T, ver, commit, date string, info *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origDate, origRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, Date, readBuildInfo = origVersion, origCommit, origDate, origRead
	})

	Version, Commit, Date = ver, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
}

func vcsInfo(moduleVersion, revision, modified string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/gg7/gentoostats", Version: moduleVersion},
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: revision},
			{Key: "vcs.time", Value: "2024-05-02T08:00:00Z"},
			{Key: "vcs.modified", Value: modified},
		},
	}
}

// ============================================================================
// GetVersion
// ============================================================================

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		info     *debug.BuildInfo
		expected string
	}{
		{"ldflags release", "v1.0.0", vcsInfo("v0.9.0", "abc", "false"), "v1.0.0"},
		{"ldflags prerelease", "v0.1.0-beta.1", nil, "v0.1.0-beta.1"},
		{"go install", "dev", vcsInfo("v1.3.0", "abc", "false"), "v1.3.0"},
		{"local checkout", "dev", vcsInfo("(devel)", "abc", "false"), "dev"},
		{"no build info", "dev", nil, "dev"},
		{"empty ldflags value", "", nil, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, tt.version, "none", "unknown", tt.info)

			if got := GetVersion(); got != tt.expected {
				t.Errorf("GetVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// ============================================================================
// Banner
// ============================================================================

func TestBanner_Ldflags(t *testing.T) {
	stamp(t, "v1.2.3", "abcdef123456", "2024-12-25T12:00:00Z", vcsInfo("(devel)", "ffffffffffffffffffff", "true"))

	lines := strings.Split(strings.TrimSuffix(Banner("gentoostats"), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Banner has %d lines, want 4: %q", len(lines), lines)
	}
	if lines[0] != "gentoostats v1.2.3" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "  commit: abcdef123456" {
		t.Errorf("ldflags commit should win over the VCS stamp, got %q", lines[1])
	}
	if lines[2] != "  built:  2024-12-25T12:00:00Z" {
		t.Errorf("ldflags date should win over the VCS stamp, got %q", lines[2])
	}
	if !strings.Contains(lines[3], runtime.Version()) || !strings.HasSuffix(lines[3], runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("go line = %q", lines[3])
	}
}

// TestBanner_VCSStamp verifies a plain `go build` reports the shortened
// revision, marking uncommitted changes.
func TestBanner_VCSStamp(t *testing.T) {
	tests := []struct {
		name     string
		modified string
		commit   string
	}{
		{"clean tree", "false", "0123456789ab"},
		{"modified tree", "true", "0123456789ab-dirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, "dev", "none", "unknown", vcsInfo("(devel)", "0123456789abcdef0123", tt.modified))

			banner := Banner("gentoostats-collector")
			for _, want := range []string{
				"gentoostats-collector dev\n",
				"  commit: " + tt.commit + "\n",
				"  built:  2024-05-02T08:00:00Z\n",
			} {
				if !strings.Contains(banner, want) {
					t.Errorf("Banner() = %q, want it to contain %q", banner, want)
				}
			}
		})
	}
}

func TestBanner_NoBuildInfo(t *testing.T) {
	stamp(t, "dev", "none", "unknown", nil)

	banner := Banner("gentoostats")
	if !strings.Contains(banner, "  commit: none\n") || !strings.Contains(banner, "  built:  unknown\n") {
		t.Errorf("Banner() = %q, want the unstamped defaults", banner)
	}
}

// ============================================================================
// UserAgent
// ============================================================================

func TestUserAgent(t *testing.T) {
	stamp(t, "v1.2.0", "none", "unknown", nil)

	want := "gentoostats/v1.2.0 (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
	if got := UserAgent(); got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}

func TestUserAgent_GoInstall(t *testing.T) {
	stamp(t, "dev", "none", "unknown", vcsInfo("v2.0.1", "abc", "false"))

	if got := UserAgent(); !strings.HasPrefix(got, "gentoostats/v2.0.1 (") {
		t.Errorf("UserAgent() = %q, want the module version", got)
	}
}
