// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for cxxmod.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/cxxmod/cxxmod/internal/logging"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	root       string
	configPath string
	verbose    bool
	logFormat  string
	noInput    bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "cxxmod",
		Short: "Keep C++ module manifests in sync with the source tree",
		Long: TitleStyle.Render("cxxmod") + SubtitleStyle.Render(" - C++ module workspace helper") + `

cxxmod keeps the resource.yml manifest of every directory consistent
with the files it lists. Renames and moves are reconciled in place;
created and deleted sources are reported to an external module tool,
one invocation at a time, in the order they happened.

` + SubtitleStyle.Render("Examples:") + `
  cxxmod watch                        Serve the current workspace
  cxxmod rename src/a.cppm src/b.cppm Reconcile a single move
  cxxmod create src/net/http.cppm     Register a new interface unit
  cxxmod complete "import "           List importable modules
  cxxmod config show                  Show effective configuration`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.root, "root", "C", "", "workspace root (default is the current directory)")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is <root>/cxxmod.cue and the user config dir)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text, logfmt or json")
	pf.BoolVar(&flags.noInput, "no-input", false, "never prompt; accept suggested module names")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if flags.logFormat != "" {
			if ok, errs := logging.Format(flags.logFormat).IsValid(); !ok {
				return errors.Join(errs...)
			}
		}
		return nil
	}

	rootCmd.AddCommand(
		newWatchCommand(app, flags),
		newRenameCommand(app, flags),
		newCreateCommand(app, flags),
		newDeleteCommand(app, flags),
		newCompleteCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with its status.
// This is called by main.main().
func Execute() {
	os.Exit(run())
}

// run executes the command tree against os.Args and returns the exit code.
func run() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return int(exitErr.Code)
	}
	return 1
}
