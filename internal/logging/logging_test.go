// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("manifest saved", "manifest", "/ws/resource.yml")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "manifest saved" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["manifest"] != "/ws/resource.yml" {
		t.Errorf("manifest = %v", rec["manifest"])
	}
}

func TestNewLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: FormatLogfmt, Output: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record emitted at warn level:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing:\n%s", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Format: "xml"})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("New() error = %v, want ErrInvalidFormat", err)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	Discard().Error("dropped")
}
