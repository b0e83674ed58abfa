package core

// File names under the configuration directory
const (
	// ConfigDir is the system configuration directory
	ConfigDir = "/etc/gentoostats"
	// ClientConfigFile is the client configuration filename
	ClientConfigFile = "gentoostats.yml"
	// PolicyFile is the field opt-out policy filename
	PolicyFile = "payload.yml"
	// AuthFile is the credentials filename
	AuthFile = "auth.yml"
)

// Package sets
const (
	// SetPrefix marks a set member that references another set
	SetPrefix = "@"
	// DefaultRootSet is the set holding the user's full selection
	DefaultRootSet = "selected"
)

// Policy sections
const (
	SectionEnv      = "ENV"
	SectionPackages = "PACKAGES"
)

// Per-package report fields, in report order.
const (
	FieldRepo      = "REPO"
	FieldSize      = "SIZE"
	FieldKeyword   = "KEYWORD"
	FieldBuildTime = "BUILD_TIME"
	FieldIUse      = "IUSE"
	FieldPkgUse    = "PKGUSE"
	FieldUse       = "USE"

	// FieldSelectedSets gates the resolved-sets section. It lives in the
	// PACKAGES section but does not trigger package enumeration.
	FieldSelectedSets = "SELECTEDSETS"
)

// PackageFields lists every field gated by the PACKAGES section that
// requires enumerating installed packages.
var PackageFields = []string{
	FieldRepo,
	FieldSize,
	FieldKeyword,
	FieldBuildTime,
	FieldIUse,
	FieldPkgUse,
	FieldUse,
}

// EnvScalarVars are reported verbatim.
var EnvScalarVars = []string{
	"PLATFORM",
	"LASTSYNC",
	"PROFILE",
	"ARCH",
	"CHOST",
	"CFLAGS",
	"CXXFLAGS",
	"FFLAGS",
	"SYNC",
	"LDFLAGS",
	"MAKEOPTS",
	"EMERGE_DEFAULT_OPTS",
	"PORTAGE_RSYNC_EXTRA_OPTS",
	"ACCEPT_LICENSE",
}

// EnvListVars are split on whitespace before being reported.
var EnvListVars = []string{
	"ACCEPT_KEYWORDS",
	"LANG",
	"GENTOO_MIRRORS",
	"FEATURES",
	"USE",
}
