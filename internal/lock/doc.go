// SPDX-License-Identifier: MPL-2.0

// Package lock provides the two locks cxxmod uses: an optional in-process
// per-directory mutex that serialises manifest read-modify-write cycles, and
// a cross-process lock file that keeps a second watcher off a workspace.
package lock
