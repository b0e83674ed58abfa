package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the two failure classes of payload assembly.
// Structured errors below match them through errors.Is.
var (
	// ErrConfiguration indicates an unreadable or malformed configuration source
	ErrConfiguration = errors.New("configuration error")

	// ErrLookup indicates a named set or package does not exist
	ErrLookup = errors.New("lookup error")

	// ErrNoCredentials indicates the auth file has no UUID or PASSWD
	ErrNoCredentials = errors.New("no submission credentials configured")
)

// formatError renders the Error/Context/Fix layout shared by structured errors.
func formatError(summary, context, fix string) string {
	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(summary)
	if context != "" {
		sb.WriteString("\nContext: ")
		sb.WriteString(context)
	}
	if fix != "" {
		sb.WriteString("\nFix: ")
		sb.WriteString(fix)
	}
	return sb.String()
}

// =============================================================================
// ConfigurationError
// =============================================================================

// PolicyFix is the remedy shown for malformed policy files.
const PolicyFix = "Correct the file; policy entries accept 1/y/yes/true/on or 0/n/no/false/off"

// defaultConfigFix is shown when the caller gave no specific remedy.
const defaultConfigFix = "Check that the file is readable and well formed"

// ConfigurationError reports a policy, auth, client or Portage configuration
// problem. Section and Field are set when the problem is a single policy
// entry. Fix is the remedy shown to the user.
type ConfigurationError struct {
	Path    string
	Section string
	Field   string
	Reason  string
	Fix     string
	Err     error
}

// NewConfigurationError creates a ConfigurationError for a whole file.
func NewConfigurationError(path, reason string, cause error) *ConfigurationError {
	return &ConfigurationError{Path: path, Reason: reason, Err: cause}
}

// NewPolicyEntryError creates a ConfigurationError for one policy entry.
func NewPolicyEntryError(path, section, field, reason string) *ConfigurationError {
	return &ConfigurationError{Path: path, Section: section, Field: field, Reason: reason, Fix: PolicyFix}
}

// WithFix sets the remedy and returns e.
func (e *ConfigurationError) WithFix(fix string) *ConfigurationError {
	e.Fix = fix
	return e
}

func (e *ConfigurationError) Error() string {
	summary := e.Reason
	if e.Err != nil {
		summary = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}

	location := e.Path
	if location == "" {
		location = "<inline>"
	}
	switch {
	case e.Section != "" && e.Field != "":
		location = fmt.Sprintf("%s, entry %s.%s", location, e.Section, e.Field)
	case e.Section != "":
		location = fmt.Sprintf("%s, section %s", location, e.Section)
	}

	fix := e.Fix
	if fix == "" {
		fix = defaultConfigFix
	}
	return formatError(summary, "while loading "+location, fix)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// IsConfigurationError reports whether err is, or wraps, a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// =============================================================================
// Lookup errors
// =============================================================================

// GroupNotFoundError reports a reference to a package set that does not exist.
type GroupNotFoundError struct {
	Name string
}

// NewGroupNotFoundError creates a GroupNotFoundError.
func NewGroupNotFoundError(name string) *GroupNotFoundError {
	return &GroupNotFoundError{Name: name}
}

func (e *GroupNotFoundError) Error() string {
	return formatError(
		fmt.Sprintf("package set '%s%s' not found", SetPrefix, e.Name),
		"the set was named as a resolution root or referenced from another set",
		fmt.Sprintf("Create /etc/portage/sets/%s or remove the reference", e.Name))
}

// Is makes errors.Is(err, ErrLookup) match.
func (e *GroupNotFoundError) Is(target error) bool { return target == ErrLookup }

// IsGroupNotFound reports whether err is, or wraps, a GroupNotFoundError.
func IsGroupNotFound(err error) bool {
	var target *GroupNotFoundError
	return errors.As(err, &target)
}

// PackageNotInstalledError reports a package-version key missing from the
// installed package database.
type PackageNotInstalledError struct {
	CPV string
}

// NewPackageNotInstalledError creates a PackageNotInstalledError.
func NewPackageNotInstalledError(cpv string) *PackageNotInstalledError {
	return &PackageNotInstalledError{CPV: cpv}
}

func (e *PackageNotInstalledError) Error() string {
	return formatError(
		fmt.Sprintf("package '%s' is not installed", e.CPV),
		"the package was listed as installed but its database entry is missing",
		"Re-run once any running emerge has finished; if it persists check /var/db/pkg")
}

// Is makes errors.Is(err, ErrLookup) match.
func (e *PackageNotInstalledError) Is(target error) bool { return target == ErrLookup }

// IsPackageNotInstalled reports whether err is, or wraps, a PackageNotInstalledError.
func IsPackageNotInstalled(err error) bool {
	var target *PackageNotInstalledError
	return errors.As(err, &target)
}

// IsLookupError reports whether err is any lookup failure.
func IsLookupError(err error) bool {
	return errors.Is(err, ErrLookup)
}

// =============================================================================
// SubmitError
// =============================================================================

// SubmitError reports a non-2xx answer from the collector.
type SubmitError struct {
	URL        string
	StatusCode int
	Body       string
}

// NewSubmitError creates a SubmitError.
func NewSubmitError(url string, status int, body string) *SubmitError {
	return &SubmitError{URL: url, StatusCode: status, Body: body}
}

func (e *SubmitError) Error() string {
	context := fmt.Sprintf("POST %s", e.URL)
	if body := strings.TrimSpace(e.Body); body != "" {
		context += ": " + body
	}
	return formatError(
		fmt.Sprintf("collector rejected the report (HTTP %d)", e.StatusCode),
		context,
		"Check the server, url and credentials in gentoostats.yml and auth.yml")
}

// IsSubmitError reports whether err is, or wraps, a SubmitError.
func IsSubmitError(err error) bool {
	var target *SubmitError
	return errors.As(err, &target)
}
