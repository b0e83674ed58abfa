// Package portage reads the Portage configuration and installed-package
// database of a Gentoo system. Every path is resolved under a Root so that a
// mounted image or chroot can be inspected from outside.
package portage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known locations relative to the root.
const (
	MakeConfPath    = "etc/portage/make.conf"
	MakeProfilePath = "etc/portage/make.profile"
	ReposConfPath   = "etc/portage/repos.conf"
	UserSetsDir     = "etc/portage/sets"
	VDBPath         = "var/db/pkg"
	WorldFile       = "var/lib/portage/world"
	WorldSetsFile   = "var/lib/portage/world_sets"
	GentooRelease   = "etc/gentoo-release"

	legacyMakeConfPath    = "etc/make.conf"
	legacyMakeProfilePath = "etc/make.profile"
)

// Root resolves host paths under a base directory.
type Root struct {
	dir string
}

// NewRoot creates a Root. An empty dir means "/".
func NewRoot(dir string) Root {
	if dir == "" {
		dir = "/"
	}
	return Root{dir: filepath.Clean(dir)}
}

// Dir returns the base directory.
func (r Root) Dir() string { return r.dir }

// Path joins host path elements under the root. Absolute elements are
// treated as host paths, never as escapes from the root.
func (r Root) Path(elem ...string) string {
	return filepath.Join(append([]string{r.dir}, elem...)...)
}

// HostPath converts a filesystem path under the root back into the path the
// host would see. ok is false when path lies outside the root.
func (r Root) HostPath(path string) (string, bool) {
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return "/" + filepath.ToSlash(rel), true
}

// ResolveLink follows the symlink at the host path rel. It returns the
// filesystem path of the target under the root and the raw link text.
func (r Root) ResolveLink(rel string) (target string, raw string, err error) {
	link := r.Path(rel)
	raw, err = os.Readlink(link)
	if err != nil {
		return "", "", err
	}
	if filepath.IsAbs(raw) {
		return r.Path(raw), raw, nil
	}
	return filepath.Clean(filepath.Join(filepath.Dir(link), raw)), raw, nil
}

// exists reports whether path names an existing file or directory.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readLines reads a Portage line list: blank lines and "#" comments are
// dropped and surrounding whitespace trimmed. A missing file yields nil.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// readTrimmed returns the whitespace-trimmed contents of path. ok is false
// when the file does not exist.
func readTrimmed(path string) (value string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// configFiles expands a Portage config location that may be a single file or
// a directory of files. Directory entries are returned in lexical order,
// skipping hidden files and editor backups.
func configFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)
	return files, nil
}

// validateName rejects names that would escape the directory they are
// looked up in.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}
