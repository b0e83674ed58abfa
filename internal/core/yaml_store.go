package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxYAMLFileSize is the maximum size of any YAML file we read (1 MB).
// A policy or client config is a few hundred bytes.
const maxYAMLFileSize = 1 << 20 // 1 MB

// YAMLStore provides generic YAML file I/O for the configuration files
// (client config, auth, policy).
type YAMLStore[T any] struct {
	path         string
	allowMissing bool // If true, missing file returns zero value instead of error
}

// NewYAMLStore creates a new YAML store for type T.
//
// Parameters:
//   - path: Location of the YAML file
//   - allowMissing: If true, Load() returns zero value for missing files instead of error
func NewYAMLStore[T any](path string, allowMissing bool) *YAMLStore[T] {
	return &YAMLStore[T]{
		path:         path,
		allowMissing: allowMissing,
	}
}

// Path returns the file path
func (s *YAMLStore[T]) Path() string {
	return s.path
}

// Exists reports whether the file is present.
func (s *YAMLStore[T]) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and unmarshals the YAML file into type T.
// Files larger than maxYAMLFileSize are rejected before reading.
func (s *YAMLStore[T]) Load() (T, error) {
	var result T

	data, err := s.read()
	if err != nil || data == nil {
		return result, err
	}

	if err := yaml.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("invalid %s: %w", filepath.Base(s.path), err)
	}

	return result, nil
}

func (s *YAMLStore[T]) read() ([]byte, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", s.path)
	}
	if info.Size() > maxYAMLFileSize {
		return nil, fmt.Errorf("%s exceeds maximum size (%d bytes > %d byte limit)", filepath.Base(s.path), info.Size(), maxYAMLFileSize)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save marshals and writes type T to the YAML file, creating its directory.
func (s *YAMLStore[T]) Save(data T, perm os.FileMode) error {
	bytes, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(s.path), err)
	}
	return s.WriteRaw(bytes, perm)
}

// WriteRaw writes an already rendered document, creating its directory.
func (s *YAMLStore[T]) WriteRaw(data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.path), err)
	}
	if err := os.WriteFile(s.path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(s.path), err)
	}
	return nil
}
