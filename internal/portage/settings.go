package portage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gg7/gentoostats/internal/core"
)

// UnknownValue is reported for derived variables that cannot be determined.
const UnknownValue = "Unknown"

const (
	makeConfFix = "Fix make.conf: use KEY=\"value\" assignments, and make every sourced file exist"
	profileFix  = "Select a valid profile with 'eselect profile set', or repair its parent files"
)

// incrementalVars stack across configuration layers instead of replacing:
// "-flag" removes a token and "-*" clears everything before it.
var incrementalVars = map[string]bool{
	"USE":             true,
	"FEATURES":        true,
	"ACCEPT_KEYWORDS": true,
}

// Settings is the merged Portage configuration: profile make.defaults
// (parents first), make.conf, then the process environment.
type Settings struct {
	root  Root
	repos *Repos

	vars        map[string]string
	incremental map[string][]string

	profileDir  string   // filesystem path of the make.profile target
	profileLink string   // raw make.profile link text
	profiles    []string // filesystem paths, parents first
}

var _ core.EnvironmentProvider = (*Settings)(nil)

// LoadSettings reads the configuration under root. environ supplies
// overrides in os.Environ form; only tracked variables are taken from it.
func LoadSettings(root Root, environ []string) (*Settings, error) {
	repos, err := loadRepos(root)
	if err != nil {
		return nil, core.NewConfigurationError(root.Path(ReposConfPath), "cannot read repository configuration", err).
			WithFix("Fix repos.conf: [DEFAULT] takes main-repo and each repository section takes a location")
	}

	s := &Settings{
		root:        root,
		repos:       repos,
		vars:        make(map[string]string),
		incremental: make(map[string][]string),
	}

	if err := s.loadProfile(); err != nil {
		return nil, err
	}

	for _, dir := range s.profiles {
		path := filepath.Join(dir, "make.defaults")
		if err := s.mergeFile(path); err != nil {
			return nil, core.NewConfigurationError(path, "cannot parse profile defaults", err).
				WithFix(profileFix)
		}
	}

	confFiles, err := configFiles(root.Path(MakeConfPath))
	if err != nil {
		return nil, core.NewConfigurationError(root.Path(MakeConfPath), "cannot read make.conf", err).WithFix(makeConfFix)
	}
	if len(confFiles) == 0 && exists(root.Path(legacyMakeConfPath)) {
		confFiles = []string{root.Path(legacyMakeConfPath)}
	}
	for _, path := range confFiles {
		if err := s.mergeFile(path); err != nil {
			return nil, core.NewConfigurationError(path, "cannot parse make.conf", err).WithFix(makeConfFix)
		}
	}

	s.applyEnviron(environ)
	s.deriveVariables()
	return s, nil
}

// Variable returns the merged value of name. Incremental variables are
// returned as their stacked, space-separated tokens.
func (s *Settings) Variable(name string) (string, bool) {
	if tokens, ok := s.incremental[name]; ok {
		return strings.Join(tokens, " "), true
	}
	v, ok := s.vars[name]
	return v, ok
}

// Root returns the root the settings were read from.
func (s *Settings) Root() Root { return s.root }

// ProfileDirs returns the profile cascade as filesystem paths, parents first.
func (s *Settings) ProfileDirs() []string {
	return append([]string(nil), s.profiles...)
}

// MainRepoLocation returns the host path of the main repository. A PORTDIR
// setting takes precedence over repos.conf.
func (s *Settings) MainRepoLocation() string {
	if portdir, ok := s.vars["PORTDIR"]; ok && portdir != "" {
		return portdir
	}
	return s.repos.MainLocation()
}

// ============================================================================
// Profile
// ============================================================================

func (s *Settings) loadProfile() error {
	for _, rel := range []string{MakeProfilePath, legacyMakeProfilePath} {
		target, raw, err := s.root.ResolveLink(rel)
		if err == nil {
			s.profileDir, s.profileLink = target, raw
			break
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		// Not a symlink: a plain directory is used as-is.
		if info, statErr := os.Stat(s.root.Path(rel)); statErr == nil && info.IsDir() {
			s.profileDir = s.root.Path(rel)
			break
		}
		return core.NewConfigurationError(s.root.Path(rel), "cannot resolve profile", err).WithFix(profileFix)
	}

	if s.profileDir == "" {
		slog.Debug("no make.profile found", "root", s.root.Dir())
		return nil
	}
	if resolved, err := filepath.EvalSymlinks(s.profileDir); err == nil {
		s.profileDir = resolved
	}

	if err := s.collectProfiles(s.profileDir, make(map[string]bool)); err != nil {
		return err
	}
	if host, ok := s.root.HostPath(s.profileDir); ok {
		slog.Debug("profile resolved", "profile", host, "cascade", len(s.profiles))
	}
	return nil
}

// collectProfiles appends dir to the cascade after its parents.
func (s *Settings) collectProfiles(dir string, visiting map[string]bool) error {
	if visiting[dir] {
		return nil
	}
	visiting[dir] = true

	parentFile := filepath.Join(dir, "parent")
	parents, err := readLines(parentFile)
	if err != nil {
		return core.NewConfigurationError(parentFile, "cannot read profile parents", err).WithFix(profileFix)
	}
	for _, p := range parents {
		parent := s.resolveParent(dir, p)
		if !exists(parent) {
			return core.NewConfigurationError(parentFile, fmt.Sprintf("parent profile %q does not exist", p), fs.ErrNotExist).
				WithFix(profileFix)
		}
		if err := s.collectProfiles(parent, visiting); err != nil {
			return err
		}
	}

	s.profiles = append(s.profiles, dir)
	return nil
}

// resolveParent interprets one line of a profile parent file. "repo:path"
// entries name a path under that repository's profiles directory.
func (s *Settings) resolveParent(dir, entry string) string {
	if repo, path, ok := strings.Cut(entry, ":"); ok && !strings.Contains(repo, "/") {
		if repo == "" {
			repo = s.repos.Main
		}
		if loc, found := s.repos.Location(repo); found {
			return s.root.Path(loc, "profiles", path)
		}
	}
	if filepath.IsAbs(entry) {
		return s.root.Path(entry)
	}
	return filepath.Clean(filepath.Join(dir, entry))
}

// ============================================================================
// Variable merging
// ============================================================================

// maxSourceDepth bounds nested "source" directives.
const maxSourceDepth = 8

// refMark is appended to every prelude value and stripped after parsing, so
// a value ending in a backslash or quote cannot end its quoted string early.
const refMark = "\x1f"

// preludeEscaper protects a value inside godotenv double quotes.
var preludeEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "\n", `\n`, "\r", `\r`)

// mergeFile parses a shell-style KEY="value" file and layers it over the
// current values. Earlier values are visible to ${VAR} references.
func (s *Settings) mergeFile(path string) error {
	return s.mergeConfig(path, 0)
}

// mergeConfig merges path, splicing in the files named by "source" lines at
// the point they appear. A missing top-level file is skipped; a missing
// sourced file is an error.
func (s *Settings) mergeConfig(path string, depth int) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && depth == 0 {
		return nil
	}
	if err != nil {
		return err
	}

	var chunk bytes.Buffer
	for line := range strings.Lines(string(data)) {
		target, ok := sourceTarget(line)
		if !ok {
			chunk.WriteString(line)
			continue
		}
		if err := s.mergeData(chunk.Bytes()); err != nil {
			return err
		}
		chunk.Reset()

		target = os.Expand(target, func(name string) string {
			v, _ := s.Variable(name)
			return v
		})
		if depth >= maxSourceDepth {
			return fmt.Errorf("source %s: nested too deeply", target)
		}
		if err := s.mergeConfig(s.resolveSource(path, target), depth+1); err != nil {
			return fmt.Errorf("source %s: %w", target, err)
		}
	}
	return s.mergeData(chunk.Bytes())
}

// sourceTarget returns the file named by a `source <file>` line.
func sourceTarget(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "source")
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if i := strings.Index(rest, " #"); i >= 0 {
		rest = strings.TrimSpace(rest[:i])
	}
	if len(rest) >= 2 && (rest[0] == '"' || rest[0] == '\'') && rest[len(rest)-1] == rest[0] {
		rest = rest[1 : len(rest)-1]
	}
	return rest, rest != ""
}

// resolveSource maps a sourced path under the root. Relative paths are taken
// from the directory of the including file.
func (s *Settings) resolveSource(from, target string) string {
	if filepath.IsAbs(target) {
		return s.root.Path(target)
	}
	return filepath.Join(filepath.Dir(from), target)
}

func (s *Settings) mergeData(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	parsed, err := godotenv.Parse(io.MultiReader(s.prelude(), bytes.NewReader(data), strings.NewReader("\n")))
	if err != nil {
		return err
	}
	for key, value := range parsed {
		s.set(key, strings.ReplaceAll(value, refMark, ""))
	}
	return nil
}

// prelude renders the current values as escaped double-quoted assignments
// so that godotenv can expand references to them.
func (s *Settings) prelude() io.Reader {
	var buf bytes.Buffer
	write := func(key, value string) {
		fmt.Fprintf(&buf, "%s=\"%s%s\"\n", key, preludeEscaper.Replace(value), refMark)
	}
	for key, value := range s.vars {
		write(key, value)
	}
	for key, tokens := range s.incremental {
		write(key, strings.Join(tokens, " "))
	}
	return &buf
}

func (s *Settings) set(key, value string) {
	if incrementalVars[key] {
		s.incremental[key] = stackIncremental(s.incremental[key], strings.Fields(value))
		return
	}
	s.vars[key] = value
}

// stackIncremental applies tokens on top of current.
func stackIncremental(current, tokens []string) []string {
	out := append([]string{}, current...)
	for _, tok := range tokens {
		switch {
		case tok == "-*":
			out = out[:0]
		case strings.HasPrefix(tok, "-"):
			out = removeToken(out, tok[1:])
		default:
			if !containsToken(out, tok) {
				out = append(out, tok)
			}
		}
	}
	return out
}

func removeToken(tokens []string, tok string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if t != tok {
			out = append(out, t)
		}
	}
	return out
}

func containsToken(tokens []string, tok string) bool {
	for _, t := range tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// applyEnviron layers tracked variables from the process environment.
func (s *Settings) applyEnviron(environ []string) {
	tracked := make(map[string]bool, len(core.EnvScalarVars)+len(core.EnvListVars)+1)
	for _, name := range core.EnvScalarVars {
		tracked[name] = true
	}
	for _, name := range core.EnvListVars {
		tracked[name] = true
	}
	tracked["PORTDIR"] = true

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok && tracked[key] {
			s.set(key, value)
		}
	}
}

// ============================================================================
// Derived variables
// ============================================================================

func (s *Settings) deriveVariables() {
	if platform, err := s.platform(); err != nil {
		slog.Debug("cannot determine platform", "error", err)
	} else {
		s.vars["PLATFORM"] = platform
	}
	s.vars["LASTSYNC"] = s.lastSync()
	s.vars["PROFILE"] = s.profileName()
}

// platform renders "<sysname>-<release>-<machine>" with a
// "-with-gentoo-<version>" suffix when the release file is readable.
func (s *Settings) platform() (string, error) {
	sysname, release, machine, err := unameFunc()
	if err != nil {
		return "", err
	}
	platform := fmt.Sprintf("%s-%s-%s", sysname, release, machine)

	if text, ok, _ := readTrimmed(s.root.Path(GentooRelease)); ok {
		if fields := strings.Fields(text); len(fields) > 0 {
			platform += "-with-gentoo-" + fields[len(fields)-1]
		}
	}
	return platform, nil
}

// lastSync returns the first line of the main repository's sync timestamp.
func (s *Settings) lastSync() string {
	lines, err := readLines(s.root.Path(s.MainRepoLocation(), "metadata", "timestamp.chk"))
	if err != nil || len(lines) == 0 {
		return UnknownValue
	}
	return lines[0]
}

// profileName names the selected profile relative to the main repository's
// profiles directory, falling back to the first parent that is, then to
// "!" plus the link text.
func (s *Settings) profileName() string {
	if s.profileDir == "" {
		return UnknownValue
	}
	base := s.root.Path(s.MainRepoLocation(), "profiles")
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}

	if rel, ok := relativeProfile(base, s.profileDir); ok {
		return rel
	}

	parents, _ := readLines(filepath.Join(s.profileDir, "parent"))
	for _, p := range parents {
		candidate := s.resolveParent(s.profileDir, p)
		if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
			candidate = resolved
		}
		if rel, ok := relativeProfile(base, candidate); ok {
			return rel
		}
	}

	if s.profileLink != "" {
		return "!" + s.profileLink
	}
	return UnknownValue
}

// relativeProfile returns path relative to base when path lies strictly
// inside base.
func relativeProfile(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
