package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gg7/gentoostats/internal/testutil"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), PolicyFile, content)
}

// ============================================================================
// Lookup Tests
// ============================================================================

// TestPolicy_FailOpen verifies unknown sections and fields are enabled.
func TestPolicy_FailOpen(t *testing.T) {
	p := NewPolicy(map[string]map[string]bool{
		"PACKAGES": {"SIZE": false},
	})

	tests := []struct {
		section, field string
		want           bool
	}{
		{"PACKAGES", "SIZE", false},
		{"PACKAGES", "REPO", true},
		{"ENV", "ARCH", true},
		{"NOSUCH", "THING", true},
		{"packages", "size", false},
	}
	for _, tt := range tests {
		if got := p.IsEnabled(tt.section, tt.field); got != tt.want {
			t.Errorf("IsEnabled(%s, %s) = %v, want %v", tt.section, tt.field, got, tt.want)
		}
	}
}

func TestPolicy_AnyEnabled(t *testing.T) {
	p := NewPolicy(map[string]map[string]bool{
		"PACKAGES": {"REPO": false, "SIZE": false},
	})

	if p.AnyEnabled("PACKAGES", "REPO", "SIZE") {
		t.Error("all listed fields are disabled")
	}
	if !p.AnyEnabled("PACKAGES", "REPO", "SIZE", "USE") {
		t.Error("USE is absent and therefore enabled")
	}
	if p.AnyEnabled("PACKAGES") {
		t.Error("AnyEnabled with no fields should be false")
	}
}

func TestPolicy_Disabled(t *testing.T) {
	p := NewPolicy(map[string]map[string]bool{
		"ENV":      {"PROFILE": false, "ARCH": true},
		"PACKAGES": {"SIZE": false},
	})

	testutil.AssertEqual(t, p.Disabled(), []string{"ENV.PROFILE", "PACKAGES.SIZE"}, "disabled")
}

// ============================================================================
// Loading Tests
// ============================================================================

func TestLoadPolicy_FlexibleTokens(t *testing.T) {
	path := writePolicy(t, `
ENV:
  ARCH: yes
  PROFILE: off
  CFLAGS: 1
  LANG: "N"
packages:
  size: False
  repo: on
`)

	p, err := LoadPolicy(path)
	testutil.AssertNoError(t, err, "LoadPolicy")

	checks := map[[2]string]bool{
		{"ENV", "ARCH"}:      true,
		{"ENV", "PROFILE"}:   false,
		{"ENV", "CFLAGS"}:    true,
		{"ENV", "LANG"}:      false,
		{"PACKAGES", "SIZE"}: false,
		{"PACKAGES", "REPO"}: true,
	}
	for k, want := range checks {
		if got := p.IsEnabled(k[0], k[1]); got != want {
			t.Errorf("%s.%s = %v, want %v", k[0], k[1], got, want)
		}
	}
	testutil.AssertEqual(t, p.Source(), path, "source")
}

func TestLoadPolicy_EmptyFileEnablesEverything(t *testing.T) {
	p, err := LoadPolicy(writePolicy(t, "# nothing configured\n"))
	testutil.AssertNoError(t, err, "LoadPolicy")

	if !p.IsEnabled("PACKAGES", "SIZE") {
		t.Error("empty policy should enable everything")
	}
}

func TestLoadPolicy_EmptySectionIsValid(t *testing.T) {
	p, err := LoadPolicy(writePolicy(t, "ENV: {}\n"))
	testutil.AssertNoError(t, err, "LoadPolicy")
	if !p.IsEnabled("ENV", "USE") {
		t.Error("empty section should enable its fields")
	}
}

// TestLoadPolicy_Malformed verifies every malformed shape is a configuration error.
func TestLoadPolicy_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad token", "PACKAGES:\n  SIZE: maybe\n"},
		{"null value", "PACKAGES:\n  SIZE:\n"},
		{"list value", "PACKAGES:\n  SIZE: [true]\n"},
		{"nested mapping", "PACKAGES:\n  SIZE:\n    deep: true\n"},
		{"section is scalar", "PACKAGES: true\n"},
		{"section is null", "PACKAGES:\n"},
		{"root is list", "- PACKAGES\n"},
		{"syntax error", "PACKAGES: [unclosed\n"},
		{"duplicate entry by case", "ENV:\n  arch: true\n  ARCH: false\n"},
		{"duplicate section by case", "ENV: {}\nenv: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LoadPolicy(writePolicy(t, tt.content))
			if err == nil {
				t.Fatalf("expected error, got policy %+v", p)
			}
			if !IsConfigurationError(err) {
				t.Errorf("expected configuration error, got %T: %v", err, err)
			}
			if p != nil {
				t.Error("no policy should be returned on error")
			}
		})
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yml"))
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error for missing file, got %v", err)
	}
}

func TestLoadPolicy_OversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PolicyFile)
	big := make([]byte, maxYAMLFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	if err := os.WriteFile(path, big, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPolicy(path); !IsConfigurationError(err) {
		t.Fatalf("expected configuration error for oversized file, got %v", err)
	}
}

func TestDefaultPolicyDocument_EnablesAllKnownFields(t *testing.T) {
	p, err := parsePolicy("default", DefaultPolicyDocument())
	testutil.AssertNoError(t, err, "parsePolicy")

	for _, name := range append(append([]string{}, EnvScalarVars...), EnvListVars...) {
		if !p.IsEnabled(SectionEnv, name) {
			t.Errorf("ENV.%s should be enabled", name)
		}
	}
	if len(p.Disabled()) != 0 {
		t.Errorf("default policy disables %v", p.Disabled())
	}
	if _, ok := p.sections[SectionPackages][FieldSelectedSets]; !ok {
		t.Error("default policy should list SELECTEDSETS explicitly")
	}
}

func TestParseFlexibleBool(t *testing.T) {
	for _, s := range []string{"1", "y", "YES", "True", "on"} {
		if v, err := ParseFlexibleBool(s); err != nil || !v {
			t.Errorf("ParseFlexibleBool(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"0", "N", "no", "FALSE", "Off"} {
		if v, err := ParseFlexibleBool(s); err != nil || v {
			t.Errorf("ParseFlexibleBool(%q) = %v, %v", s, v, err)
		}
	}
	for _, s := range []string{"", "2", "enabled", "yess"} {
		if _, err := ParseFlexibleBool(s); err == nil {
			t.Errorf("ParseFlexibleBool(%q) should fail", s)
		}
	}
}
