// SPDX-License-Identifier: MPL-2.0

// Package events turns file-system changes into manifest updates and tool
// invocations.
//
// A rename or move is reconciled against the affected resource manifests. A
// created source file or directory is registered with the external tool
// after asking for its module name, and a deleted path is reported to the
// tool. Every event of a batch is handled independently: one failure never
// prevents the rest of the batch from being processed.
package events
