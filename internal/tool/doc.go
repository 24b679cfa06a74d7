// SPDX-License-Identifier: MPL-2.0

// Package tool builds argument vectors for the external module tool.
//
// Every invocation has the shape
//
//	<tool...> <root> <subcommand> <args...>
//
// where <tool...> is the configured tool command split into words without
// running a shell. Paths are passed as separate arguments, never interpolated
// into a shell string.
package tool
