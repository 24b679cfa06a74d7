// SPDX-License-Identifier: MPL-2.0

package modsrc

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/afero"
)

// declPattern matches a named module declaration. The global module fragment
// (`module;`) and the private fragment (`module :private;`) have no name and
// do not match.
var declPattern = regexp.MustCompile(
	`^\s*(export\s+)?module\s+([A-Za-z_][A-Za-z0-9_.]*)\s*(?::\s*([A-Za-z_][A-Za-z0-9_.]*))?\s*(?:\[\[.*\]\])?\s*;`)

// Declaration is the module declaration of a source file.
type Declaration struct {
	// Line is the 1-based line number.
	Line int
	// Exported is true for `export module`.
	Exported bool
	// Module is the module name without partition.
	Module string
	// Partition is the partition name, if any.
	Partition string
}

// Name returns module or module:partition.
func (d Declaration) Name() string {
	if d.Partition == "" {
		return d.Module
	}
	return d.Module + ":" + d.Partition
}

// Find scans r for the first module declaration.
func Find(r io.Reader) (Declaration, bool, error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		m := declPattern.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		return Declaration{
			Line:      line,
			Exported:  m[1] != "",
			Module:    m[2],
			Partition: m[3],
		}, true, nil
	}
	if err := sc.Err(); err != nil {
		return Declaration{}, false, fmt.Errorf("scan module declaration: %w", err)
	}
	return Declaration{}, false, nil
}

// FindFile opens path on fsys and scans it with Find. A nil fsys uses the OS
// file system.
func FindFile(fsys afero.Fs, path string) (Declaration, bool, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	f, err := fsys.Open(path)
	if err != nil {
		return Declaration{}, false, err
	}
	defer f.Close()
	return Find(f)
}
