// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports errors the watcher cannot recover from. On
// inotify these are exactly the resource limits.
func isFatalFsnotifyError(err error) bool {
	return IsResourceLimit(err)
}

// IsResourceLimit reports inotify resource exhaustion: the watch limit
// (ENOSPC) or a file descriptor limit (EMFILE, ENFILE). None of them clear
// up while the watcher keeps running.
func IsResourceLimit(err error) bool {
	for _, errno := range []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
