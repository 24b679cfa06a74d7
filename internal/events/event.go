// SPDX-License-Identifier: MPL-2.0

package events

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// OpCreate is a path that appeared.
	OpCreate Op = iota + 1
	// OpRename is a path that moved from OldPath to Path.
	OpRename
	// OpDelete is a path that disappeared.
	OpDelete
)

const (
	// AddDirsAsk confirms each new directory with the user.
	AddDirsAsk AddDirsPolicy = "ask"
	// AddDirsAlways registers every new directory.
	AddDirsAlways AddDirsPolicy = "always"
	// AddDirsNever ignores new directories.
	AddDirsNever AddDirsPolicy = "never"
)

var (
	// ErrInvalidOp is returned when an Event carries an unknown Op.
	ErrInvalidOp = errors.New("invalid event op")
	// ErrInvalidAddDirsPolicy is returned for an unknown AddDirsPolicy.
	ErrInvalidAddDirsPolicy = errors.New("invalid add_dirs policy")
)

type (
	// Op is the kind of change an Event describes.
	Op int

	// AddDirsPolicy controls how created directories are handled.
	AddDirsPolicy string

	// Event is a single file-system change. Paths are absolute.
	Event struct {
		Op      Op
		Path    string
		OldPath string
	}
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpRename:
		return "rename"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// IsValid returns whether the policy is one of the defined values.
func (p AddDirsPolicy) IsValid() (bool, []error) {
	switch p {
	case AddDirsAsk, AddDirsAlways, AddDirsNever:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (want ask, always or never)", ErrInvalidAddDirsPolicy, string(p))}
	}
}

// Create returns a create event.
func Create(path string) Event { return Event{Op: OpCreate, Path: path} }

// Rename returns a rename event.
func Rename(oldPath, newPath string) Event {
	return Event{Op: OpRename, Path: newPath, OldPath: oldPath}
}

// Delete returns a delete event.
func Delete(path string) Event { return Event{Op: OpDelete, Path: path} }

// String renders the event for logs.
func (e Event) String() string {
	var sb strings.Builder
	sb.WriteString(e.Op.String())
	sb.WriteByte(' ')
	if e.Op == OpRename {
		sb.WriteString(e.OldPath)
		sb.WriteString(" -> ")
	}
	sb.WriteString(e.Path)
	return sb.String()
}
