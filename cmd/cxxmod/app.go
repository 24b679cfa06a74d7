// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/cxxmod/cxxmod/internal/config"
	"github.com/cxxmod/cxxmod/internal/dispatch"
	"github.com/cxxmod/cxxmod/internal/events"
	"github.com/cxxmod/cxxmod/internal/issue"
	"github.com/cxxmod/cxxmod/internal/lock"
	"github.com/cxxmod/cxxmod/internal/logging"
	"github.com/cxxmod/cxxmod/internal/manifest"
	"github.com/cxxmod/cxxmod/internal/prompt"
	"github.com/cxxmod/cxxmod/internal/reconcile"
	"github.com/cxxmod/cxxmod/internal/runner"
	"github.com/cxxmod/cxxmod/internal/tool"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and opens a
	// session through it.
	App struct {
		Config   config.Provider
		Prompter prompt.Prompter
		Fs       afero.Fs
		stdin    *os.File
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Prompter, when set, replaces the terminal/static choice made from
		// configuration.
		Prompter prompt.Prompter
		Fs       afero.Fs
		Stdin    *os.File
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// session holds the services built from one loaded configuration.
	session struct {
		root       string
		cfg        *config.Config
		logger     *slog.Logger
		dispatcher *dispatch.Dispatcher
		handler    *events.Handler
		display    *display
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:   deps.Config,
		Prompter: deps.Prompter,
		Fs:       deps.Fs,
		stdin:    deps.Stdin,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// workspaceRoot resolves the --root flag against the working directory.
func workspaceRoot(flags *rootFlagValues) (string, error) {
	root := flags.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root %q: %w", root, err)
	}
	return abs, nil
}

// flagOverrides maps persistent flags onto configuration keys.
func flagOverrides(flags *rootFlagValues) map[string]any {
	overrides := map[string]any{}
	if flags.verbose {
		overrides["log.level"] = string(config.LevelDebug)
	}
	if flags.logFormat != "" {
		overrides["log.format"] = flags.logFormat
	}
	if flags.noInput {
		overrides["events.prompt"] = string(config.PromptNever)
	}
	return overrides
}

// loadConfig resolves the workspace root and loads its configuration.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (string, *config.Loaded, error) {
	root, err := workspaceRoot(flags)
	if err != nil {
		return "", nil, err
	}
	loaded, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		WorkspaceRoot:  root,
		Overrides:      flagOverrides(flags),
	})
	if err != nil {
		return root, nil, err
	}
	return root, loaded, nil
}

// open builds every service a command needs. The dispatcher is created but
// its worker is not started.
func (a *App) open(ctx context.Context, flags *rootFlagValues) (*session, error) {
	root, loaded, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	logger, err := logging.New(logging.Options{
		Level:  string(cfg.Log.Level),
		Format: cfg.Log.Format,
		Prefix: config.AppName,
		Output: a.stderr,
	})
	if err != nil {
		return nil, err
	}

	builder, err := tool.NewBuilder(cfg.Tool.Command, cfg.ToolRoot(root))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("configure tool").
			WithResource(cfg.Tool.Command).
			WithSuggestion("Set tool.command to the module tool executable, e.g. tool: command: \"cxxmod-tool\"").
			WithIssue(issue.ToolNotFoundId).
			Wrap(err).
			BuildError()
	}

	var locks *lock.Keyed
	if cfg.Manifest.Lock {
		locks = lock.NewKeyed()
	}

	store := manifest.NewStore(a.Fs, cfg.Manifest.Name)
	rec := reconcile.New(reconcile.Options{
		Store:               store,
		Logger:              logger,
		Locks:               locks,
		SkipUnchangedWrites: cfg.Manifest.SkipUnchangedWrites,
	})

	disp := newDisplay(a.stdout, a.stderr, flags.verbose)
	run := runner.New(runner.Options{Logger: logger, Sink: a.stdout})
	dispatcher := dispatch.New(run, dispatch.Options{Logger: logger, Observer: disp})

	handler := events.NewHandler(events.Options{
		Fs:             a.Fs,
		Store:          store,
		Reconciler:     rec,
		Tool:           builder,
		Submitter:      dispatcher,
		Prompter:       a.prompter(cfg),
		Logger:         logger,
		AddDirs:        cfg.Events.AddDirs,
		ForwardRenames: cfg.Events.ForwardRenames,
		Visible:        cfg.Events.Visible,
	})

	return &session{
		root:       root,
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		handler:    handler,
		display:    disp,
	}, nil
}

// prompter picks the injected prompter, a terminal form, or a static
// answerer when prompting is disabled or stdin is not a terminal.
func (a *App) prompter(cfg *config.Config) prompt.Prompter {
	if a.Prompter != nil {
		return a.Prompter
	}
	if cfg.Events.Prompt == config.PromptNever || !prompt.IsTerminal(a.stdin) {
		return prompt.Static{AcceptSuggestions: true}
	}
	return prompt.NewTerminal(prompt.TerminalOptions{
		Theme:  cfg.Events.PromptTheme,
		Input:  a.stdin,
		Output: a.stderr,
	})
}

// absPaths resolves command-line paths against the working directory.
func absPaths(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", arg, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// fail renders err on stderr and returns an ExitError so fang does not print
// it a second time.
func (a *App) fail(err error, verbose bool) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return err
	}
	renderError(a.stderr, err, verbose)
	return &ExitError{Code: 1, Err: err}
}
