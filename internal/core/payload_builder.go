package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gg7/gentoostats/internal/types"
)

// BuildOptions tunes a PayloadBuilder.
type BuildOptions struct {
	// Workers bounds concurrent metadata reads; <= 0 uses the CPU count.
	Workers int
	// Progress receives one Increment per fetched package. Optional.
	Progress ProgressTracker
}

// PayloadBuilder assembles a policy-filtered Report from the package database
// collaborators. It performs reads only.
type PayloadBuilder struct {
	policy   *Policy
	env      EnvironmentProvider
	lister   PackageLister
	metadata MetadataAccessor
	sets     *SetResolver
	opts     BuildOptions
}

// NewPayloadBuilder creates a PayloadBuilder. sets may be nil when the caller
// has no group catalog; SELECTEDSETS is then left out of the report.
func NewPayloadBuilder(policy *Policy, env EnvironmentProvider, lister PackageLister, metadata MetadataAccessor, sets *SetResolver, opts BuildOptions) *PayloadBuilder {
	if policy == nil {
		policy = NewPolicy(nil)
	}
	if opts.Progress == nil {
		opts.Progress = noopProgress{}
	}
	return &PayloadBuilder{
		policy:   policy,
		env:      env,
		lister:   lister,
		metadata: metadata,
		sets:     sets,
		opts:     opts,
	}
}

// Build produces a fresh Report. Any collaborator error, including context
// cancellation, aborts the build and no report is returned.
func (b *PayloadBuilder) Build(ctx context.Context) (*types.Report, error) {
	report := types.NewReport()

	b.collectEnv(report)

	if b.policy.AnyEnabled(SectionPackages, PackageFields...) {
		packages, err := b.collectPackages(ctx)
		if err != nil {
			b.opts.Progress.Fail(err)
			return nil, err
		}
		report.Packages = packages
	}

	if b.sets != nil && b.policy.IsEnabled(SectionPackages, FieldSelectedSets) {
		selected, err := b.sets.ResolveDefault()
		if err != nil {
			return nil, fmt.Errorf("resolve package sets: %w", err)
		}
		report.SelectedSets = selected
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}

func (b *PayloadBuilder) collectEnv(report *types.Report) {
	for _, name := range EnvScalarVars {
		if !b.policy.IsEnabled(SectionEnv, name) {
			continue
		}
		if v, ok := b.env.Variable(name); ok {
			report.Env[name] = types.TextValue(v)
		} else {
			report.Env[name] = types.MissingValue()
		}
	}

	for _, name := range EnvListVars {
		if !b.policy.IsEnabled(SectionEnv, name) {
			continue
		}
		if v, ok := b.env.Variable(name); ok {
			report.Env[name] = types.ListValue(strings.Fields(v))
		} else {
			report.Env[name] = types.MissingValue()
		}
	}
}

func (b *PayloadBuilder) collectPackages(ctx context.Context) (map[string]types.PackageRecord, error) {
	keys, err := b.lister.ListInstalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installed packages: %w", err)
	}
	b.opts.Progress.SetTotal(len(keys))

	executor := NewParallelExecutor(b.opts.Workers, b.opts.Progress)
	slog.Debug("fetching package metadata", "packages", len(keys), "workers", executor.Workers())
	results, err := executor.ExecuteParallelFetch(ctx, keys, b.metadata.Get)
	if err != nil {
		return nil, err
	}

	packages := make(map[string]types.PackageRecord, len(results))
	for _, r := range results {
		packages[r.CPV] = b.project(r.Metadata)
	}
	b.opts.Progress.Complete()
	return packages, nil
}

// project copies the enabled fields of meta into a record. Disabled fields
// stay zero and are omitted on output; enabled but unknown ones encode as null.
func (b *PayloadBuilder) project(meta types.PackageMetadata) types.PackageRecord {
	var rec types.PackageRecord
	enabled := func(field string) bool { return b.policy.IsEnabled(SectionPackages, field) }

	if enabled(FieldRepo) {
		rec.Repo = types.Some(meta.RepoOrUnknown())
	}
	if enabled(FieldSize) {
		rec.Size = types.FromPtr(meta.Size)
	}
	if enabled(FieldKeyword) {
		rec.Keyword = types.FromPtr(meta.Keyword)
	}
	if enabled(FieldBuildTime) {
		rec.BuildTime = types.FromPtr(meta.BuildTime)
	}
	if enabled(FieldIUse) {
		rec.IUse = types.Some(flagList(meta.IUse))
	}
	if enabled(FieldPkgUse) {
		rec.PkgUse = types.Some(flagList(meta.PkgUse))
	}
	if enabled(FieldUse) {
		rec.Use = types.Some(flagList(meta.Use))
	}
	return rec
}

// flagList returns a copy of flags that encodes as [] rather than null.
func flagList(flags []string) []string {
	out := make([]string, len(flags))
	copy(out, flags)
	return out
}
