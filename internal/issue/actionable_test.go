// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "load manifest"}, "failed to load manifest"},
		{
			"with resource",
			&ActionableError{Operation: "load manifest", Resource: "src/resource.yml"},
			"failed to load manifest: src/resource.yml",
		},
		{
			"full",
			&ActionableError{Operation: "load manifest", Resource: "src/resource.yml", Cause: errors.New("bad indent")},
			"failed to load manifest: src/resource.yml: bad indent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_FormatAndUnwrap(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	err := NewErrorContext().
		WithOperation("save manifest").
		WithResource("/ws/resource.yml").
		WithSuggestions("Check permissions", "Retry").
		Wrap(fmt.Errorf("write: %w", root)).
		Build()

	if !errors.Is(err, root) {
		t.Error("errors.Is(err, root) = false")
	}

	short := err.Format(false)
	if !strings.Contains(short, "• Check permissions") || !strings.Contains(short, "• Retry") {
		t.Errorf("Format(false) missing suggestions:\n%s", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) includes the error chain:\n%s", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. write: permission denied") || !strings.Contains(verbose, "2. permission denied") {
		t.Errorf("Format(true) chain incomplete:\n%s", verbose)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}
}

func TestErrorContext_BuildCopiesSuggestions(t *testing.T) {
	t.Parallel()

	c := NewErrorContext().WithOperation("op").WithSuggestion("one")
	first := c.Build()
	c.WithSuggestion("two")
	if len(first.Suggestions) != 1 {
		t.Errorf("earlier Build() saw later suggestion: %v", first.Suggestions)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	err := WrapWithContext(errors.New("boom"), "run tool", "add_dir")
	if err.Error() != "failed to run tool: add_dir: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestActionableError_Issue(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().WithOperation("watch").WithIssue(WorkspaceBusyId).Build()
	if got := err.Issue(); got == nil || got.Id() != WorkspaceBusyId {
		t.Errorf("Issue() = %v", got)
	}
	if (&ActionableError{Operation: "x"}).Issue() != nil {
		t.Error("Issue() without IssueID should be nil")
	}
}
