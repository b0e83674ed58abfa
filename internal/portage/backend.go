package portage

import (
	"log/slog"
	"os"

	"github.com/gg7/gentoostats/internal/core"
	"github.com/gg7/gentoostats/internal/types"
)

// Open builds the Portage-backed collaborators for cfg.Root. It satisfies
// core.BackendFactory.
func Open(cfg types.ClientConfig) (core.Backend, error) {
	root := NewRoot(cfg.Root)

	settings, err := LoadSettings(root, os.Environ())
	if err != nil {
		return core.Backend{}, err
	}

	arch, _ := settings.Variable("ARCH")
	slog.Debug("portage settings loaded",
		"root", root.Dir(),
		"arch", arch,
		"profiles", len(settings.ProfileDirs()),
		"repo", settings.MainRepoLocation())

	vdb := NewVDB(root, arch)
	return core.Backend{
		Env:      settings,
		Packages: vdb,
		Metadata: vdb,
		Groups:   NewSetCatalog(root, settings.ProfileDirs()),
	}, nil
}
