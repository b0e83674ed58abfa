package portage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gg7/gentoostats/internal/core"
)

// Built-in set names.
const (
	SetSelected         = "selected"
	SetSelectedPackages = "selected-packages"
	SetSelectedSets     = "selected-sets"
	SetSystem           = "system"
	SetProfile          = "profile"
	SetWorld            = "world"
)

// SetCatalog serves the Portage package sets: the built-in sets derived from
// the world files and the profile, plus user sets under /etc/portage/sets.
type SetCatalog struct {
	root     Root
	profiles []string
}

var _ core.GroupCatalog = (*SetCatalog)(nil)

// NewSetCatalog creates a SetCatalog. profiles is the profile cascade,
// parents first, as returned by Settings.ProfileDirs.
func NewSetCatalog(root Root, profiles []string) *SetCatalog {
	return &SetCatalog{root: root, profiles: profiles}
}

func (c *SetCatalog) builtin(name string) bool {
	switch name {
	case SetSelected, SetSelectedPackages, SetSelectedSets, SetSystem, SetProfile, SetWorld:
		return true
	}
	return false
}

func (c *SetCatalog) userSetPath(name string) (string, bool) {
	if validateName(name) != nil {
		return "", false
	}
	path := c.root.Path(UserSetsDir, name)
	return path, exists(path)
}

// HasGroup reports whether name is a built-in or user-defined set.
func (c *SetCatalog) HasGroup(name string) bool {
	if c.builtin(name) {
		return true
	}
	_, ok := c.userSetPath(name)
	return ok
}

// Members returns the entries of a set. References to other sets carry
// core.SetPrefix.
func (c *SetCatalog) Members(name string) ([]string, error) {
	switch name {
	case SetSelected:
		atoms, err := c.worldAtoms()
		if err != nil {
			return nil, err
		}
		sets, err := c.worldSets()
		if err != nil {
			return nil, err
		}
		return append(atoms, sets...), nil
	case SetSelectedPackages:
		return c.worldAtoms()
	case SetSelectedSets:
		return c.worldSets()
	case SetSystem:
		return c.profilePackages(true)
	case SetProfile:
		return c.profilePackages(false)
	case SetWorld:
		return []string{
			core.SetPrefix + SetProfile,
			core.SetPrefix + SetSelected,
			core.SetPrefix + SetSystem,
		}, nil
	}

	path, ok := c.userSetPath(name)
	if !ok {
		return nil, core.NewGroupNotFoundError(name)
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("read set %s: %w", name, err)
	}
	return lines, nil
}

func (c *SetCatalog) worldAtoms() ([]string, error) {
	lines, err := readLines(c.root.Path(WorldFile))
	if err != nil {
		return nil, fmt.Errorf("read world file: %w", err)
	}
	return lines, nil
}

// worldSets returns the set references recorded in world_sets. Entries are
// normalized to carry the set prefix.
func (c *SetCatalog) worldSets() ([]string, error) {
	lines, err := readLines(c.root.Path(WorldSetsFile))
	if err != nil {
		return nil, fmt.Errorf("read world_sets file: %w", err)
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.HasPrefix(line, core.SetPrefix) {
			line = core.SetPrefix + line
		}
		out = append(out, line)
	}
	return out, nil
}

// profilePackages stacks the "packages" files of the profile cascade.
// system selects the "*atom" lines; otherwise the plain lines are returned.
// A "-" prefix removes an entry inherited from a parent.
func (c *SetCatalog) profilePackages(system bool) ([]string, error) {
	var atoms []string
	for _, dir := range c.profiles {
		path := filepath.Join(dir, "packages")
		lines, err := readLines(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for _, line := range lines {
			remove := strings.HasPrefix(line, "-")
			line = strings.TrimPrefix(line, "-")

			isSystem := strings.HasPrefix(line, "*")
			if isSystem != system {
				continue
			}
			atom := strings.TrimPrefix(line, "*")
			if remove {
				atoms = removeToken(atoms, atom)
			} else if !containsToken(atoms, atom) {
				atoms = append(atoms, atom)
			}
		}
	}
	if atoms == nil {
		atoms = []string{}
	}
	return atoms, nil
}
