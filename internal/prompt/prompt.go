// SPDX-License-Identifier: MPL-2.0

// Package prompt asks the user for module names and confirmations.
//
// Two implementations exist: Terminal, which renders huh forms, and Static,
// which answers from fixed policy when no human is available.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"
)

var (
	// ErrCancelled is returned when the user dismisses a prompt.
	ErrCancelled = errors.New("prompt cancelled")

	// ErrInvalidTheme is returned when a Theme is not one of the known names.
	ErrInvalidTheme = errors.New("invalid prompt theme")
)

type (
	// Theme names a huh colour theme.
	Theme string

	// Prompter collects answers needed to build tool commands.
	Prompter interface {
		// ModuleName asks for the module a new source file belongs to.
		// suggestion pre-fills the answer. An empty answer or a dismissed
		// prompt returns ErrCancelled.
		ModuleName(ctx context.Context, path, suggestion string) (string, error)
		// Confirm asks a yes/no question.
		Confirm(ctx context.Context, question string) (bool, error)
	}

	// TerminalOptions configures a Terminal prompter.
	TerminalOptions struct {
		Theme Theme
		// Accessible renders plain line prompts for screen readers and
		// non-terminal input.
		Accessible bool
		Input      io.Reader
		Output     io.Writer
	}

	// Terminal prompts interactively with huh forms.
	Terminal struct {
		opts TerminalOptions
	}

	// Static answers prompts without user interaction.
	Static struct {
		// AcceptSuggestions makes ModuleName return the suggestion instead
		// of cancelling.
		AcceptSuggestions bool
		// ConfirmAnswer is returned by Confirm.
		ConfirmAnswer bool
	}
)

// IsValid returns whether the Theme is a known name, and a list of
// validation errors if it is not. The empty Theme is valid.
func (t Theme) IsValid() (bool, []error) {
	switch t {
	case "", ThemeDefault, ThemeCharm, ThemeDracula, ThemeCatppuccin, ThemeBase16:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidTheme, string(t))}
	}
}

func (t Theme) huhTheme() *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewTerminal creates a Terminal prompter. Missing streams default to
// stdin and stderr; accessible mode is forced when stdin is not a terminal.
func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Input == nil {
		opts.Input = os.Stdin
		if !IsTerminal(os.Stdin) {
			opts.Accessible = true
		}
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Terminal{opts: opts}
}

// ModuleName implements Prompter.
func (t *Terminal) ModuleName(ctx context.Context, path, suggestion string) (string, error) {
	value := suggestion
	input := huh.NewInput().
		Title("Module name for " + filepath.Base(path)).
		Description(path).
		Placeholder("my.module").
		Value(&value)

	if err := t.run(ctx, huh.NewGroup(input)); err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrCancelled
	}
	return value, nil
}

// Confirm implements Prompter.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	var answer bool
	confirm := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	if err := t.run(ctx, huh.NewGroup(confirm)); err != nil {
		return false, err
	}
	return answer, nil
}

func (t *Terminal) run(ctx context.Context, group *huh.Group) error {
	form := huh.NewForm(group).
		WithTheme(t.opts.Theme.huhTheme()).
		WithAccessible(t.opts.Accessible).
		WithInput(t.opts.Input).
		WithOutput(t.opts.Output)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, huh.ErrTimeout) {
			return ErrCancelled
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// ModuleName implements Prompter.
func (s Static) ModuleName(ctx context.Context, _, suggestion string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	suggestion = strings.TrimSpace(suggestion)
	if !s.AcceptSuggestions || suggestion == "" {
		return "", ErrCancelled
	}
	return suggestion, nil
}

// Confirm implements Prompter.
func (s Static) Confirm(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.ConfirmAnswer, nil
}
