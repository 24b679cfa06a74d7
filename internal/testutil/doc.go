// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// The helpers build throwaway workspaces (MustWriteFile, MustMkdirAll,
// MustReadFile) and stand-ins for the external module tool (WriteTool,
// RecordingTool).
package testutil
