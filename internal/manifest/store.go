// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store reads and writes manifests through an afero filesystem. It performs
// no locking: callers must not load/mutate/save the same directory
// concurrently (see the lock package for the opt-in guard).
type Store struct {
	fs   afero.Fs
	name string
}

// NewStore creates a Store. An empty name selects DefaultFileName and a nil
// fs selects the host filesystem.
func NewStore(fsys afero.Fs, name string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if name == "" {
		name = DefaultFileName
	}
	return &Store{fs: fsys, name: name}
}

// FileName returns the manifest base name handled by the store.
func (s *Store) FileName() string { return s.name }

// Path returns the manifest path for dir.
func (s *Store) Path(dir string) string {
	return filepath.Join(dir, s.name)
}

// IsManifest reports whether path names a manifest file.
func (s *Store) IsManifest(path string) bool {
	return filepath.Base(path) == s.name
}

// Load reads the manifest adjacent to dir. It returns ErrAbsent when the
// file does not exist and a *ParseError when it cannot be decoded.
func (s *Store) Load(dir string) (*Manifest, error) {
	path := s.Path(dir)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrAbsent
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	m, err := Parse(dir, data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return m, nil
}

// Save serialises m and replaces the manifest file of its directory.
func (s *Store) Save(m *Manifest) error {
	path := s.Path(m.Dir())
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", path, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
