// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors with remediation hints.
//
// ActionableError carries the failed operation, the resource involved and a
// list of suggestions. Issue is a catalog entry with longer Markdown
// guidance, rendered for the terminal with glamour.
package issue
