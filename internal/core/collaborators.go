package core

import (
	"context"

	"github.com/gg7/gentoostats/internal/types"
)

// EnvironmentProvider returns configured package-manager variables.
// An absent variable is reported with ok == false, distinct from "".
type EnvironmentProvider interface {
	Variable(name string) (value string, ok bool)
}

// PackageLister enumerates installed package-version keys ("cat/name-version").
type PackageLister interface {
	ListInstalled(ctx context.Context) ([]string, error)
}

// MetadataAccessor reads one installed package's reportable facts.
// Unknown keys fail with a PackageNotInstalledError.
type MetadataAccessor interface {
	Get(ctx context.Context, cpv string) (types.PackageMetadata, error)
}

// GroupCatalog exposes named package sets. Members referencing another set
// carry SetPrefix.
type GroupCatalog interface {
	HasGroup(name string) bool
	Members(name string) ([]string, error)
}

// Backend bundles the package-database collaborators the Manager wires
// into a PayloadBuilder.
type Backend struct {
	Env      EnvironmentProvider
	Packages PackageLister
	Metadata MetadataAccessor
	Groups   GroupCatalog
}

// UICallback handles user-facing messages for long-running commands
type UICallback interface {
	ShowError(title, message string)
	ShowSuccess(message string)
	ShowWarning(title, message string)
	ShowInfo(message string)
	StyleTitle(title string) string

	GetOutputMode() OutputMode
	FormatJSON(output JSONOutput) error
}

// ProgressTracker reports progress of a bounded batch of work
type ProgressTracker interface {
	Increment(message string)
	SetTotal(total int)
	Complete()
	Fail(err error)
}

// SilentUICallback is a no-op implementation (for testing/CI)
type SilentUICallback struct{}

func (s *SilentUICallback) ShowError(title, message string)   {}
func (s *SilentUICallback) ShowSuccess(message string)        {}
func (s *SilentUICallback) ShowWarning(title, message string) {}
func (s *SilentUICallback) ShowInfo(message string)           {}
func (s *SilentUICallback) StyleTitle(title string) string    { return title }
func (s *SilentUICallback) GetOutputMode() OutputMode         { return OutputQuiet }
func (s *SilentUICallback) FormatJSON(_ JSONOutput) error     { return nil }

type noopProgress struct{}

func (noopProgress) Increment(string) {}
func (noopProgress) SetTotal(int)     {}
func (noopProgress) Complete()        {}
func (noopProgress) Fail(error)       {}
