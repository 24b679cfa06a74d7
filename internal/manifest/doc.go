// SPDX-License-Identifier: MPL-2.0

// Package manifest loads and saves per-directory resource manifests.
//
// A manifest is a YAML mapping from category name to value. List values hold
// file base names and are the only values reconciliation ever mutates; every
// other value (scalars, nested mappings, aliases) is kept as its original YAML
// node and re-emitted unchanged on save. Category order is preserved.
//
// A missing manifest file is not a failure: Load returns ErrAbsent and the
// directory is treated as untracked. Malformed content is reported as a
// *ParseError.
package manifest
