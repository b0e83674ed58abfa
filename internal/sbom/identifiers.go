// Package sbom provides shared utilities for Software Bill of Materials generation.
// This package contains common logic used by both the CycloneDX and SPDX formatters.
package sbom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gg7/gentoostats/internal/types"
)

// PackageIdentity represents the unique identity of an installed package.
// The same package-version may be installed from different repositories on
// different hosts, so the identity includes the repository.
type PackageIdentity struct {
	CPV  string // category/name-version key from the report
	Repo string // repository name, may be empty or types.UnknownRepo
}

// HasRepo reports whether the repository is known.
func (p PackageIdentity) HasRepo() bool {
	return p.Repo != "" && p.Repo != types.UnknownRepo
}

// GenerateBOMRef creates a unique CycloneDX BOM reference for a package.
// Format: {cpv}::{repo}, the notation emerge uses, or {cpv} when the
// repository is unknown.
func GenerateBOMRef(p PackageIdentity) string {
	if !p.HasRepo() {
		return p.CPV
	}
	return fmt.Sprintf("%s::%s", p.CPV, p.Repo)
}

// GenerateSPDXID creates a unique SPDX identifier for a package.
// Format: Package-{sanitized-cpv}
// Returns the ID without the "SPDXRef-" prefix (that's added during JSON serialization).
func GenerateSPDXID(p PackageIdentity) string {
	return "Package-" + SanitizeSPDXID(p.CPV)
}

// SanitizeSPDXID converts a string to a valid SPDX identifier component.
// SPDX IDs must match the pattern [a-zA-Z0-9.-]+
// Invalid characters are replaced with hyphens.
// Empty input returns "unknown" to prevent invalid IDs.
func SanitizeSPDXID(s string) string {
	if s == "" {
		return "unknown"
	}

	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		if isValidSPDXChar(r) {
			result.WriteRune(r)
		} else {
			result.WriteRune('-')
		}
	}

	return result.String()
}

// isValidSPDXChar returns true if the rune is valid in an SPDX identifier.
func isValidSPDXChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '.' ||
		r == '-'
}

// SPDXDocumentID is the standard SPDX document identifier.
const SPDXDocumentID = "DOCUMENT"

// FormatSPDXRef formats an SPDX element ID with the required "SPDXRef-" prefix.
func FormatSPDXRef(elementID string) string {
	return "SPDXRef-" + elementID
}

// MetadataComment builds a structured comment from report fields.
// Only includes fields that have values, avoiding empty placeholders.
func MetadataComment(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return strings.Join(parts, ", ")
}

// DefaultDocumentName is the fallback name when none is provided.
const DefaultDocumentName = "gentoo-host"

// ValidateDocumentName ensures a document name is valid for use in SBOMs.
// Returns the original name if valid, or DefaultDocumentName if empty.
func ValidateDocumentName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDocumentName
	}
	return name
}

// DefaultSPDXNamespace is the default domain for SPDX document namespaces.
const DefaultSPDXNamespace = "https://spdx.org/spdxdocs"

// BuildSPDXNamespace constructs a unique SPDX document namespace.
// Format: {baseURL}/{documentName}/{uuid}
func BuildSPDXNamespace(baseURL, documentName, uuid string) string {
	if baseURL == "" {
		baseURL = DefaultSPDXNamespace
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), documentName, uuid)
}
