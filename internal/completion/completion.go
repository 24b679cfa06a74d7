// SPDX-License-Identifier: MPL-2.0

// Package completion supplies module-name candidates for import statements.
package completion

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

var (
	triggerPattern = regexp.MustCompile(`(?:^|[^\w])import\s*$`)
	partialPattern = regexp.MustCompile(`(?:^|[^\w])import\s+([\w.:]+)$`)
)

// Source reads module names from a plain-text file, one per line.
type Source struct {
	fs   afero.Fs
	path string
}

// NewSource creates a Source for path. A nil fsys uses the OS file system.
func NewSource(fsys afero.Fs, path string) *Source {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Source{fs: fsys, path: path}
}

// Path returns the modules file location.
func (s *Source) Path() string { return s.path }

// Modules reads the file and returns its names in file order. Blank lines
// and surrounding whitespace are ignored. A missing file yields no names.
func (s *Source) Modules() ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read modules file %s: %w", s.path, err)
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read modules file %s: %w", s.path, err)
	}
	return names, nil
}

// Triggered reports whether the text before the cursor ends with the
// import token, optionally followed by whitespace.
func Triggered(beforeCursor string) bool {
	return triggerPattern.MatchString(beforeCursor)
}

// Complete returns the sorted, de-duplicated module names that extend the
// partially typed name after import. It returns nil when the line is not an
// import position.
func (s *Source) Complete(beforeCursor string) ([]string, error) {
	var partial string
	switch {
	case Triggered(beforeCursor):
	case partialPattern.MatchString(beforeCursor):
		partial = partialPattern.FindStringSubmatch(beforeCursor)[1]
	default:
		return nil, nil
	}

	names, err := s.Modules()
	if err != nil {
		return nil, err
	}
	matches := slices.DeleteFunc(names, func(n string) bool {
		return !strings.HasPrefix(n, partial)
	})
	slices.Sort(matches)
	return slices.Compact(matches), nil
}
