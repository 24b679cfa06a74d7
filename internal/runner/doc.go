// SPDX-License-Identifier: MPL-2.0

// Package runner executes one external tool invocation and captures its
// output.
//
// Standard output and standard error are read concurrently and appended to a
// single Transcript in arrival order. Whenever the stream being appended to
// changes, a marker line naming the new stream is inserted first, so a reader
// of the combined transcript can see where interleaving switched. A non-zero
// exit status is reported in the Result, never as an error.
package runner
