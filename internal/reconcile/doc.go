// SPDX-License-Identifier: MPL-2.0

// Package reconcile keeps directory manifests consistent when a tracked file
// is renamed or moved.
//
// A rename inside one directory rewrites matching list entries in place. A
// move across directories partitions every list category of the source
// manifest into matched and remaining entries, writes the remaining entries
// back, and appends the matched block (renamed to the new file name) to the
// same categories of the destination manifest, creating it if needed.
//
// Concurrent Apply calls touching the same directory race on the manifest
// file (read-modify-write) unless a lock.Keyed is supplied in Options.
package reconcile
