package portage

import (
	"context"
	"testing"

	"github.com/gg7/gentoostats/internal/core"
	"github.com/gg7/gentoostats/internal/testutil"
	"github.com/gg7/gentoostats/internal/types"
)

// TestOpen_BuildsReport runs the payload builder over a fixture root.
func TestOpen_BuildsReport(t *testing.T) {
	stubUname(t, nil)
	dir := newFixtureRoot(t)

	backend, err := Open(types.ClientConfig{Root: dir})
	testutil.AssertNoError(t, err, "Open")

	policy := core.NewPolicy(map[string]map[string]bool{
		core.SectionEnv: {"LANG": false},
	})
	sets := core.NewSetResolver(backend.Groups)
	builder := core.NewPayloadBuilder(policy, backend.Env, backend.Packages, backend.Metadata, sets, core.BuildOptions{Workers: 2})

	report, err := builder.Build(context.Background())
	testutil.AssertNoError(t, err, "Build")

	testutil.AssertEqual(t, report.Env["ARCH"], types.TextValue("amd64"), "ENV.ARCH")
	testutil.AssertEqual(t, report.Env["PROFILE"], types.TextValue("default/linux/amd64"), "ENV.PROFILE")
	testutil.AssertEqual(t, report.Env["USE"], types.ListValue([]string{"c", "d"}), "ENV.USE")
	if _, ok := report.Env["LANG"]; ok {
		t.Error("ENV.LANG is disabled and should be omitted")
	}

	python, ok := report.Packages["dev-lang/python-3.11.4"]
	if !ok {
		t.Fatalf("python missing from %v", report.PackageKeys())
	}
	testutil.AssertEqual(t, python.Keyword, types.Some("amd64"), "python KEYWORD")
	testutil.AssertEqual(t, python.Use, types.Some([]string{"ssl", "tk"}), "python USE")

	gtk := report.Packages["x11-libs/gtk+-3.24.41"]
	testutil.AssertEqual(t, gtk.Repo, types.Some(types.UnknownRepo), "gtk REPO")
	testutil.AssertEqual(t, gtk.Size, types.Null[int64](), "gtk SIZE")

	if len(report.SelectedSets) != 2 {
		t.Errorf("SELECTEDSETS = %v", report.SelectedSets)
	}
}

func TestOpen_InvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, MakeConfPath, "BAD-NAME=\"x\"\n")

	_, err := Open(types.ClientConfig{Root: dir})
	if !core.IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
