// Package purl provides Package URL (PURL) generation for installed Gentoo
// packages. PURLs are a standardized way to identify software packages
// across ecosystems.
// See: https://github.com/package-url/purl-spec
//
// This package is used by SBOM generation (CycloneDX, SPDX).
package purl

import (
	"net/url"
	"sort"
	"strings"

	"github.com/gg7/gentoostats/internal/types"
)

// Type represents the package type in a PURL
type Type string

// PURL type constants
const (
	TypeEbuild  Type = "ebuild"  // Gentoo ebuilds (category is the namespace)
	TypeGeneric Type = "generic" // Anything that is not a valid CPV
)

// QualifierRepository names the repository an ebuild was installed from.
const QualifierRepository = "repository"

// PURL represents a parsed Package URL
type PURL struct {
	Type       Type
	Namespace  string // package category
	Name       string // package name
	Version    string // version including revision
	Qualifiers map[string]string
	Subpath    string
}

// String formats the PURL as a standard PURL string. Qualifiers are sorted
// by key so the same package always renders identically.
func (p *PURL) String() string {
	if p.Type == "" || p.Name == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("pkg:")
	sb.WriteString(string(p.Type))
	sb.WriteRune('/')

	if p.Namespace != "" {
		sb.WriteString(url.PathEscape(p.Namespace))
		sb.WriteRune('/')
	}

	sb.WriteString(url.PathEscape(p.Name))

	if p.Version != "" {
		sb.WriteRune('@')
		sb.WriteString(url.PathEscape(p.Version))
	}

	if len(p.Qualifiers) > 0 {
		keys := make([]string, 0, len(p.Qualifiers))
		for k, v := range p.Qualifiers {
			if v != "" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i == 0 {
				sb.WriteRune('?')
			} else {
				sb.WriteRune('&')
			}
			sb.WriteString(url.QueryEscape(strings.ToLower(k)))
			sb.WriteRune('=')
			sb.WriteString(url.QueryEscape(p.Qualifiers[k]))
		}
	}

	if p.Subpath != "" {
		sb.WriteRune('#')
		sb.WriteString(p.Subpath)
	}

	return sb.String()
}

// FromCPV creates an ebuild PURL from a package-version key. repo becomes
// the repository qualifier unless it is empty or unknown. Returns nil when
// cpv cannot be split.
func FromCPV(cpv, repo string) *PURL {
	category, name, version, ok := types.SplitCPV(cpv)
	if !ok {
		return nil
	}

	p := &PURL{
		Type:      TypeEbuild,
		Namespace: category,
		Name:      name,
		Version:   version,
	}
	if repo != "" && repo != types.UnknownRepo {
		p.Qualifiers = map[string]string{QualifierRepository: repo}
	}
	return p
}

// FromCPVWithFallback is FromCPV falling back to a generic PURL named after
// the raw key.
func FromCPVWithFallback(cpv, repo string) *PURL {
	if p := FromCPV(cpv, repo); p != nil {
		return p
	}
	return &PURL{
		Type: TypeGeneric,
		Name: cpv,
	}
}
