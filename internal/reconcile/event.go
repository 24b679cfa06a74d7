// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"fmt"
	"path/filepath"
)

const (
	// SameDirectory is a rename that keeps the parent directory.
	SameDirectory MoveKind = iota
	// CrossDirectory is a move between two parent directories.
	CrossDirectory
)

type (
	// MoveKind classifies a MoveEvent and selects the reconciliation branch.
	MoveKind int

	// MoveEvent describes one file identity change.
	MoveEvent struct {
		OldPath string
		NewPath string
	}
)

// NewMoveEvent builds a MoveEvent from two paths, cleaning both.
func NewMoveEvent(oldPath, newPath string) MoveEvent {
	return MoveEvent{OldPath: filepath.Clean(oldPath), NewPath: filepath.Clean(newPath)}
}

// OldName returns the base name before the move.
func (e MoveEvent) OldName() string { return filepath.Base(e.OldPath) }

// NewName returns the base name after the move.
func (e MoveEvent) NewName() string { return filepath.Base(e.NewPath) }

// OldDir returns the parent directory before the move.
func (e MoveEvent) OldDir() string { return filepath.Dir(e.OldPath) }

// NewDir returns the parent directory after the move.
func (e MoveEvent) NewDir() string { return filepath.Dir(e.NewPath) }

// Kind reports whether the parent directory changed.
func (e MoveEvent) Kind() MoveKind {
	if e.OldDir() == e.NewDir() {
		return SameDirectory
	}
	return CrossDirectory
}

// String returns "old -> new".
func (e MoveEvent) String() string {
	return fmt.Sprintf("%s -> %s", e.OldPath, e.NewPath)
}

// String returns the kind name used in logs.
func (k MoveKind) String() string {
	switch k {
	case SameDirectory:
		return "rename"
	case CrossDirectory:
		return "move"
	default:
		return fmt.Sprintf("MoveKind(%d)", int(k))
	}
}
