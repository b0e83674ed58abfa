package core

import (
	"fmt"
	"path/filepath"

	"github.com/gg7/gentoostats/internal/types"
)

// ConfigStore handles gentoostats.yml and auth.yml I/O
type ConfigStore interface {
	Load() (types.ClientConfig, error)
	Save(config types.ClientConfig) error
	LoadAuth(path string) (types.AuthConfig, error)
	Path() string
}

// FileConfigStore implements ConfigStore using the filesystem
type FileConfigStore struct {
	path string
}

// NewFileConfigStore creates a FileConfigStore for the client config at path.
// An empty path means ConfigDir/ClientConfigFile.
func NewFileConfigStore(path string) *FileConfigStore {
	if path == "" {
		path = filepath.Join(ConfigDir, ClientConfigFile)
	}
	return &FileConfigStore{path: path}
}

// Path returns the config file path
func (s *FileConfigStore) Path() string {
	return s.path
}

// Load reads gentoostats.yml and applies defaults. A missing file yields the
// defaults.
func (s *FileConfigStore) Load() (types.ClientConfig, error) {
	cfg, err := NewYAMLStore[types.ClientConfig](s.path, true).Load()
	if err != nil {
		return types.ClientConfig{}, NewConfigurationError(s.path, "cannot load client configuration", err).
			WithFix("Fix the YAML in gentoostats.yml or regenerate it with 'gentoostats init --force'")
	}
	return cfg.WithDefaults(), nil
}

// Save writes gentoostats.yml
func (s *FileConfigStore) Save(cfg types.ClientConfig) error {
	return NewYAMLStore[types.ClientConfig](s.path, true).Save(cfg, 0o644)
}

// LoadAuth reads the credentials file. It must exist and carry both keys.
func (s *FileConfigStore) LoadAuth(path string) (types.AuthConfig, error) {
	auth, err := NewYAMLStore[types.AuthConfig](path, false).Load()
	if err != nil {
		return types.AuthConfig{}, NewConfigurationError(path, "cannot load credentials", err).
			WithFix("Make the auth file readable YAML with UUID and PASSWD keys")
	}
	if auth.UUID == "" || auth.Passwd == "" {
		return types.AuthConfig{}, NewConfigurationError(path, "UUID and PASSWD are required", ErrNoCredentials).
			WithFix("Add UUID and PASSWD to the auth file; 'gentoostats init' generates a UUID")
	}
	return auth, nil
}

// initDocument renders the commented client config written by init.
func initDocument(cfg types.ClientConfig) []byte {
	return []byte(fmt.Sprintf(`# gentoostats client configuration
server: %s
server_nossl: %s
url: %s
ssl: %t
auth_file: %s
payload_file: %s
history_db: %s
`, cfg.Server, cfg.ServerNoSSL, cfg.URL, cfg.UseSSL(), cfg.AuthFile, cfg.PayloadFile, cfg.HistoryDB))
}
