// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"
)

// InstanceFileName is the lock file created in the workspace root while a
// watcher serves it.
const InstanceFileName = ".cxxmod.lock"

// ErrBusy is returned by Instance.Acquire when another process holds the lock.
var ErrBusy = errors.New("workspace is already being watched by another cxxmod process")

// Instance is a non-blocking cross-process lock on one workspace root.
type Instance struct {
	path string
	fl   *flock.Flock
}

// NewInstance prepares (but does not take) the lock for root.
func NewInstance(root string) *Instance {
	path := filepath.Join(root, InstanceFileName)
	return &Instance{path: path, fl: flock.New(path)}
}

// Path returns the lock file path.
func (i *Instance) Path() string { return i.path }

// Acquire takes the lock or returns ErrBusy.
func (i *Instance) Acquire() error {
	ok, err := i.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire %s: %w", i.path, err)
	}
	if !ok {
		return ErrBusy
	}
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (i *Instance) Release() error {
	if err := i.fl.Unlock(); err != nil {
		return fmt.Errorf("release %s: %w", i.path, err)
	}
	return nil
}

func dedupSorted(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
