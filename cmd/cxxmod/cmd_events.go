// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/cxxmod/cxxmod/internal/events"
	"github.com/cxxmod/cxxmod/internal/runner"
)

func newRenameCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-path> <new-path>",
		Short: "Reconcile manifests after a file was renamed or moved",
		Long: `Reconcile manifests after a file was renamed or moved.

This is the hook for editors and scripts that move files themselves.
Within one directory the manifest entries are renamed in place; across
directories they are migrated to the destination manifest.`,
		Example: `  cxxmod rename src/net/http.cppm src/net/http1.cppm
  cxxmod rename src/net/tls.cpp src/crypto/tls.cpp`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absPaths(args)
			if err != nil {
				return err
			}
			return runEvents(cmd, app, flags, []events.Event{events.Rename(paths[0], paths[1])})
		},
	}
}

func newCreateCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "create <path>...",
		Short: "Register created sources or directories with the module tool",
		Long: `Register created sources or directories with the module tool.

Interface units (.cppm, .ixx, .mpp) are added with add_interface and
implementation units with add_impl. The module name is read from the
file's module declaration or asked for. Directories follow the
events.add_dirs policy.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absPaths(args)
			if err != nil {
				return err
			}
			evs := make([]events.Event, 0, len(paths))
			for _, p := range paths {
				evs = append(evs, events.Create(p))
			}
			return runEvents(cmd, app, flags, evs)
		},
	}
}

func newDeleteCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>...",
		Short: "Report deleted paths to the module tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absPaths(args)
			if err != nil {
				return err
			}
			evs := make([]events.Event, 0, len(paths))
			for _, p := range paths {
				evs = append(evs, events.Delete(p))
			}
			return runEvents(cmd, app, flags, evs)
		},
	}
}

// runEvents handles evs as one batch, runs the queued tool invocations to
// completion and maps failures onto the exit code.
func runEvents(cmd *cobra.Command, app *App, flags *rootFlagValues, evs []events.Event) error {
	cmd.SilenceErrors = true
	ctx := cmd.Context()

	s, err := app.open(ctx, flags)
	if err != nil {
		return app.fail(err, flags.verbose)
	}

	workerErr := make(chan error, 1)
	go func() { workerErr <- s.dispatcher.Run(ctx) }()

	res := s.handler.HandleBatch(ctx, evs)
	s.display.batch(res)
	s.dispatcher.Close()
	if err := <-workerErr; err != nil && !errors.Is(err, context.Canceled) {
		return app.fail(err, flags.verbose)
	}

	code := batchExitCode(res)
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// batchExitCode returns the exit status of the first failed invocation, 1
// for any other failure, or 0.
func batchExitCode(res events.BatchResult) runner.ExitCode {
	for _, p := range res.Pending() {
		select {
		case <-p.Done():
		default:
			return 1
		}
		if r := p.Result(); !r.Success() {
			if r.ExitCode > 0 {
				return r.ExitCode
			}
			return 1
		}
	}
	if res.Err() != nil {
		return 1
	}
	return 0
}
