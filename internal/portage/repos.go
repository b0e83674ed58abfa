package portage

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// DefaultMainRepo is the repository assumed when repos.conf names none.
const DefaultMainRepo = "gentoo"

// defaultRepoLocations are tried in order when repos.conf gives no
// location for the main repository.
var defaultRepoLocations = []string{"/var/db/repos/gentoo", "/usr/portage"}

// Repository is one entry of repos.conf.
type Repository struct {
	Name     string
	Location string // host path
}

// Repos holds the parsed repos.conf.
type Repos struct {
	Main   string
	ByName map[string]Repository
}

// loadRepos reads repos.conf (file or directory) under root. Missing
// configuration yields the default main repository location.
func loadRepos(root Root) (*Repos, error) {
	files, err := configFiles(root.Path(ReposConfPath))
	if err != nil {
		return nil, err
	}

	repos := &Repos{Main: DefaultMainRepo, ByName: make(map[string]Repository)}
	for _, file := range files {
		cfg, err := ini.LoadSources(reposConfOptions, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		applyReposConf(cfg, repos)
	}

	if _, ok := repos.ByName[repos.Main]; !ok {
		loc := defaultRepoLocations[0]
		for _, candidate := range defaultRepoLocations {
			if exists(root.Path(candidate)) {
				loc = candidate
				break
			}
		}
		repos.ByName[repos.Main] = Repository{Name: repos.Main, Location: loc}
	}
	return repos, nil
}

var reposConfOptions = ini.LoadOptions{
	SkipUnrecognizableLines: true,
	IgnoreInlineComment:     true,
}

// applyReposConf layers one repos.conf file over repos. The DEFAULT section
// names the main repository; every other section is a repository.
func applyReposConf(cfg *ini.File, repos *Repos) {
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			if sec.HasKey("main-repo") {
				repos.Main = sec.Key("main-repo").String()
			}
			continue
		}
		if sec.HasKey("location") {
			repos.ByName[sec.Name()] = Repository{Name: sec.Name(), Location: sec.Key("location").String()}
		}
	}
}

// MainLocation returns the host path of the main repository.
func (r *Repos) MainLocation() string {
	return r.ByName[r.Main].Location
}

// Location returns the host path of a named repository.
func (r *Repos) Location(name string) (string, bool) {
	repo, ok := r.ByName[name]
	return repo.Location, ok
}
