// SPDX-License-Identifier: MPL-2.0

package modsrc

import (
	"path/filepath"
	"strings"
)

const (
	// KindOther is any path the tool does not track.
	KindOther Kind = iota
	// KindInterface is a module interface unit.
	KindInterface
	// KindImplementation is a module implementation unit.
	KindImplementation
	// KindDirectory is a directory.
	KindDirectory
)

var (
	interfaceExts = map[string]struct{}{
		".cppm": {}, ".ixx": {}, ".mpp": {}, ".mxx": {}, ".cxxm": {}, ".ccm": {}, ".c++m": {},
	}
	implementationExts = map[string]struct{}{
		".cpp": {}, ".cc": {}, ".cxx": {}, ".c++": {},
	}
)

// Kind is the classification of a created path.
type Kind int

// Classify returns the kind of path. isDir short-circuits extension checks.
func Classify(path string, isDir bool) Kind {
	if isDir {
		return KindDirectory
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := interfaceExts[ext]; ok {
		return KindInterface
	}
	if _, ok := implementationExts[ext]; ok {
		return KindImplementation
	}
	return KindOther
}

// IsSource reports whether k is an interface or implementation unit.
func (k Kind) IsSource() bool {
	return k == KindInterface || k == KindImplementation
}

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindImplementation:
		return "implementation"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}
