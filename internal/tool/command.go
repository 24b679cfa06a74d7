// SPDX-License-Identifier: MPL-2.0

package tool

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// Subcommands understood by the external tool.
const (
	SubAddInterface = "add_interface"
	SubAddImpl      = "add_impl"
	SubAddDir       = "add_dir"
	SubRename       = "rename"
	SubDelete       = "delete"

	// NewFileFlag marks a source file that was created empty.
	NewFileFlag = "--new-file"
)

var (
	// ErrEmptyTool is returned when the configured tool command has no words.
	ErrEmptyTool = errors.New("tool command is empty")
	// ErrEmptyModule is returned when a module name is required but blank.
	ErrEmptyModule = errors.New("module name is empty")
)

type (
	// Command is one tool invocation as an argument vector.
	Command struct {
		// Argv holds the program followed by its arguments.
		Argv []string
		// Dir is the working directory; empty means the workspace root.
		Dir string
		// Sub is the tool subcommand (add_interface, delete, ...).
		Sub string
	}

	// Builder creates Commands for one workspace.
	Builder struct {
		prefix []string
		root   string
	}
)

// NewBuilder splits toolLine into words (quotes and $VARS honoured, no
// command substitution) and binds it to the workspace root.
func NewBuilder(toolLine, root string) (*Builder, error) {
	words, err := shell.Fields(toolLine, nil)
	if err != nil {
		return nil, fmt.Errorf("parse tool command %q: %w", toolLine, err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyTool
	}
	return &Builder{prefix: words, root: root}, nil
}

// Root returns the workspace root passed to every invocation.
func (b *Builder) Root() string { return b.root }

// AddInterface registers a new module interface unit.
func (b *Builder) AddInterface(path, module string, newFile bool) (Command, error) {
	return b.addSource(SubAddInterface, path, module, newFile)
}

// AddImpl registers a new module implementation unit.
func (b *Builder) AddImpl(path, module string, newFile bool) (Command, error) {
	return b.addSource(SubAddImpl, path, module, newFile)
}

// AddDir registers a new directory.
func (b *Builder) AddDir(path string) Command {
	return b.build(SubAddDir, path)
}

// Rename reports a renamed or moved path.
func (b *Builder) Rename(oldPath, newPath string) Command {
	return b.build(SubRename, oldPath, newPath)
}

// Delete reports a deleted path.
func (b *Builder) Delete(path string) Command {
	return b.build(SubDelete, path)
}

func (b *Builder) addSource(sub, path, module string, newFile bool) (Command, error) {
	module = strings.TrimSpace(module)
	if module == "" {
		return Command{}, ErrEmptyModule
	}
	args := []string{path, module}
	if newFile {
		args = append(args, NewFileFlag)
	}
	return b.build(sub, args...), nil
}

func (b *Builder) build(sub string, args ...string) Command {
	argv := slices.Concat(b.prefix, []string{b.root, sub}, args)
	return Command{Argv: argv, Dir: b.root, Sub: sub}
}

// String renders the command as a shell-quoted line for logs and transcripts.
func (c Command) String() string {
	parts := make([]string, len(c.Argv))
	for i, arg := range c.Argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", arg)
		}
		parts[i] = q
	}
	return strings.Join(parts, " ")
}
