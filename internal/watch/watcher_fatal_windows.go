// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

var (
	// Win32 error codes for exhausted handles or memory.
	limitErrnos = []syscall.Errno{
		4, // ERROR_TOO_MANY_OPEN_FILES
		8, // ERROR_NOT_ENOUGH_MEMORY
	}
	// errInvalidHandle means the watched directory was removed.
	errInvalidHandle = syscall.Errno(6)
)

// isFatalFsnotifyError reports errors after which ReadDirectoryChangesW
// cannot continue.
func isFatalFsnotifyError(err error) bool {
	return IsResourceLimit(err) || errors.Is(err, errInvalidHandle)
}

// IsResourceLimit reports exhausted handles or memory.
func IsResourceLimit(err error) bool {
	for _, errno := range limitErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
