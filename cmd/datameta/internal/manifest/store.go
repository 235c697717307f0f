package manifest

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Store defines manifest persistence.
type Store interface {
	// Load returns the stored manifest, or a default one when none exists.
	// found reports whether a manifest file was read.
	Load() (m *Manifest, found bool, err error)
	// Save replaces the stored manifest.
	Save(m *Manifest) error
	Exists() bool
	Path() string
}

// FileStore keeps the manifest as a JSON file on a billy filesystem.
type FileStore struct {
	fs             billy.Filesystem
	path           string
	defaultVersion string
}

// NewFileStore creates a store for name, relative to the filesystem root.
// Missing manifests load as New(defaultVersion).
func NewFileStore(fs billy.Filesystem, name, defaultVersion string) *FileStore {
	if defaultVersion == "" {
		defaultVersion = DefaultVersion
	}
	return &FileStore{
		fs:             fs,
		path:           path.Clean(name),
		defaultVersion: defaultVersion,
	}
}

// Path returns the manifest path relative to the filesystem root.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the manifest. If the file doesn't exist, returns a default manifest.
func (s *FileStore) Load() (*Manifest, bool, error) {
	data, err := util.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(s.defaultVersion), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	m, err := Decode(data)
	if err != nil {
		return nil, true, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return m, true, nil
}

// Save writes the manifest to a temp file and renames it into place, so
// readers never see a partially written manifest.
func (s *FileStore) Save(m *Manifest) error {
	if m == nil {
		return fmt.Errorf("cannot save nil manifest")
	}

	data, err := Encode(m)
	if err != nil {
		return err
	}

	if dir := path.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := util.WriteFile(s.fs, tmpPath, data, 0o644); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temp manifest: %w", err)
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename manifest: %w", err)
	}

	return nil
}

// Exists returns true if the manifest file exists.
func (s *FileStore) Exists() bool {
	_, err := s.fs.Stat(s.path)
	return err == nil
}
