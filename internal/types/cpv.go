package types

import (
	"regexp"
	"strings"
)

// versionPattern matches a Gentoo package version with optional suffixes
// and revision, anchored at the end of a package-version string.
var versionPattern = regexp.MustCompile(`^(.+?)-(\d+(?:\.\d+)*[a-z]?(?:_(?:alpha|beta|pre|rc|p)\d*)*(?:-r\d+)?)$`)

// SplitCPV splits "category/name-version" into its parts. ok is false when
// cpv has no category or no parsable version.
func SplitCPV(cpv string) (category, name, version string, ok bool) {
	category, pf, found := strings.Cut(cpv, "/")
	if !found || category == "" || strings.Contains(pf, "/") {
		return "", "", "", false
	}
	m := versionPattern.FindStringSubmatch(pf)
	if m == nil {
		return "", "", "", false
	}
	return category, m[1], m[2], true
}
