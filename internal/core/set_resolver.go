package core

import (
	"fmt"
	"sort"
	"strings"
)

// SetResolver expands named package sets into one entry per visited set.
type SetResolver struct {
	catalog GroupCatalog
}

// NewSetResolver creates a SetResolver over catalog.
func NewSetResolver(catalog GroupCatalog) *SetResolver {
	return &SetResolver{catalog: catalog}
}

// ResolveDefault resolves DefaultRootSet recursively.
func (r *SetResolver) ResolveDefault() (map[string][]string, error) {
	return r.Resolve(DefaultRootSet, true)
}

// Resolve walks the set graph from root. The result maps every visited set
// to its own direct members (atoms and @references), sorted and deduplicated.
// Each set is expanded at most once, so cycles and diamonds terminate.
// On any error the result is nil.
func (r *SetResolver) Resolve(root string, recursive bool) (map[string][]string, error) {
	root = strings.TrimPrefix(root, SetPrefix)
	resolved := make(map[string][]string)
	pending := []string{root}

	for len(pending) > 0 {
		name := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if _, seen := resolved[name]; seen {
			continue
		}
		if !r.catalog.HasGroup(name) {
			return nil, NewGroupNotFoundError(name)
		}
		members, err := r.catalog.Members(name)
		if err != nil {
			return nil, fmt.Errorf("read set %s%s: %w", SetPrefix, name, err)
		}

		direct := normalizeMembers(members)
		resolved[name] = direct

		if !recursive {
			continue
		}
		for _, m := range direct {
			if sub, ok := strings.CutPrefix(m, SetPrefix); ok {
				if _, seen := resolved[sub]; !seen {
					pending = append(pending, sub)
				}
			}
		}
	}

	return resolved, nil
}

// FilterAtoms drops set references from members.
func FilterAtoms(members []string) []string {
	atoms := make([]string, 0, len(members))
	for _, m := range members {
		if !strings.HasPrefix(m, SetPrefix) {
			atoms = append(atoms, m)
		}
	}
	return atoms
}

// normalizeMembers trims, drops blanks, dedupes and sorts. The result is
// never nil so it serializes as [].
func normalizeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || m == SetPrefix {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
