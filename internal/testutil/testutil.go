// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes content to path, creating parent directories.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustReadFile returns the content of path.
func MustReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// WriteTool writes an executable /bin/sh script with the given body into a
// fresh temporary directory and returns its path. Only usable on Unix.
func WriteTool(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-tool")
	script := "#!/bin/sh\n" + strings.TrimSuffix(body, "\n") + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write tool script: %v", err)
	}
	return path
}

// RecordingTool is a tool stand-in that appends every argument vector it
// receives to a log file, one line per call.
type RecordingTool struct {
	// Path is the script to configure as the tool command.
	Path string
	// Log is the file the script appends to.
	Log string
}

// NewRecordingTool writes a RecordingTool. prelude runs before the
// arguments are recorded and may inspect "$@".
func NewRecordingTool(t testing.TB, prelude string) *RecordingTool {
	t.Helper()
	log := filepath.Join(t.TempDir(), "calls.log")
	body := prelude + "\n" + `echo "$@" >> '` + log + `'`
	return &RecordingTool{Path: WriteTool(t, body), Log: log}
}

// Calls returns the recorded argument lines, or nil when the tool was never
// invoked.
func (r *RecordingTool) Calls(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(r.Log)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read tool log: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
