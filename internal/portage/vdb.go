package portage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gg7/gentoostats/internal/core"
	"github.com/gg7/gentoostats/internal/types"
)

// Keyword reported for packages installed without a matching keyword.
const unkeyworded = "**"

// mergingPrefix marks an entry Portage is still writing.
const mergingPrefix = "-MERGING-"

// VDB reads the installed-package database (/var/db/pkg).
type VDB struct {
	dir  string
	arch string
}

var (
	_ core.PackageLister    = (*VDB)(nil)
	_ core.MetadataAccessor = (*VDB)(nil)
)

// NewVDB creates a VDB under root. arch is the ARCH setting used to classify
// installed keywords.
func NewVDB(root Root, arch string) *VDB {
	return &VDB{dir: root.Path(VDBPath), arch: arch}
}

// ListInstalled returns every installed "category/name-version" key, sorted.
// A missing database yields an empty list.
func (v *VDB) ListInstalled(ctx context.Context) ([]string, error) {
	categories, err := os.ReadDir(v.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read package database: %w", err)
	}

	keys := []string{}
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cat.IsDir() || strings.HasPrefix(cat.Name(), ".") {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(v.dir, cat.Name()))
		if err != nil {
			return nil, fmt.Errorf("read category %s: %w", cat.Name(), err)
		}
		for _, e := range entries {
			name := e.Name()
			if !e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, mergingPrefix) {
				slog.Debug("skipping package database entry", "category", cat.Name(), "entry", name)
				continue
			}
			keys = append(keys, cat.Name()+"/"+name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Get reads the recorded metadata of one installed package.
func (v *VDB) Get(ctx context.Context, cpv string) (types.PackageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return types.PackageMetadata{}, err
	}

	dir, err := v.packageDir(cpv)
	if err != nil {
		return types.PackageMetadata{}, err
	}

	meta := types.PackageMetadata{CPV: cpv}
	read := func(name string) (string, bool, error) {
		value, ok, err := readTrimmed(filepath.Join(dir, name))
		if err != nil {
			return "", false, fmt.Errorf("%s: read %s: %w", cpv, name, err)
		}
		return value, ok, nil
	}

	repo, _, err := read("repository")
	if err != nil {
		return meta, err
	}
	meta.Repo = repo

	for _, f := range []struct {
		name string
		dst  **int64
	}{
		{"BUILD_TIME", &meta.BuildTime},
		{"SIZE", &meta.Size},
	} {
		raw, ok, err := read(f.name)
		if err != nil {
			return meta, err
		}
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.Debug("ignoring malformed package field", "cpv", cpv, "field", f.name, "value", raw)
			continue
		}
		*f.dst = &n
	}

	keywords, ok, err := read("KEYWORDS")
	if err != nil {
		return meta, err
	}
	if ok {
		kw := InstalledKeyword(v.arch, strings.Fields(keywords))
		meta.Keyword = &kw
	}

	iuse, _, err := read("IUSE")
	if err != nil {
		return meta, err
	}
	use, _, err := read("USE")
	if err != nil {
		return meta, err
	}
	pkguse, _, err := read("PKGUSE")
	if err != nil {
		return meta, err
	}

	meta.IUse = StripIUseDefaults(strings.Fields(iuse))
	meta.Use = FinalUse(strings.Fields(use), meta.IUse)
	meta.PkgUse = nonNil(strings.Fields(pkguse))
	return meta, nil
}

// packageDir validates cpv and returns its database directory.
func (v *VDB) packageDir(cpv string) (string, error) {
	category, pf, found := strings.Cut(cpv, "/")
	if !found || validateName(category) != nil || validateName(pf) != nil || strings.HasPrefix(pf, mergingPrefix) {
		return "", core.NewPackageNotInstalledError(cpv)
	}
	dir := filepath.Join(v.dir, category, pf)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", core.NewPackageNotInstalledError(cpv)
	}
	return dir, nil
}

// InstalledKeyword classifies the keyword a package was installed with:
// arch when stable on arch, "~arch" when only testing, "**" otherwise.
func InstalledKeyword(arch string, keywords []string) string {
	if arch == "" {
		return unkeyworded
	}
	testing := false
	for _, kw := range keywords {
		switch kw {
		case arch:
			return arch
		case "~" + arch:
			testing = true
		}
	}
	if testing {
		return "~" + arch
	}
	return unkeyworded
}

// StripIUseDefaults removes the "+" and "-" default markers from IUSE.
func StripIUseDefaults(iuse []string) []string {
	out := make([]string, 0, len(iuse))
	for _, flag := range iuse {
		out = append(out, strings.TrimLeft(flag, "+-"))
	}
	return out
}

// FinalUse returns the enabled flags of use that the package declares in
// iuse. Implicit and USE_EXPAND flags outside IUSE are dropped.
func FinalUse(use, iuse []string) []string {
	declared := make(map[string]bool, len(iuse))
	for _, flag := range iuse {
		declared[flag] = true
	}
	seen := make(map[string]bool, len(use))
	out := []string{}
	for _, flag := range use {
		if declared[flag] && !seen[flag] {
			seen[flag] = true
			out = append(out, flag)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
