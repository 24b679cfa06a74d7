// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cxxmod/cxxmod/internal/events"
	"github.com/cxxmod/cxxmod/internal/issue"
	"github.com/cxxmod/cxxmod/internal/lock"
	"github.com/cxxmod/cxxmod/internal/watch"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the workspace and keep manifests in sync",
		Long: `Watch the workspace tree until interrupted.

Renames and moves of files listed in a manifest are reconciled
immediately. Created and deleted sources and directories are reported
to the module tool; invocations run one at a time in event order.

A file that disappears and a file that appears within the same
debounce window (watch.debounce) are treated as one rename when they
share a base name or a parent directory. Anything else is a delete
followed by a create.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			if err := runWatch(cmd.Context(), app, flags); err != nil {
				return app.fail(err, flags.verbose)
			}
			return nil
		},
	}
}

func runWatch(ctx context.Context, app *App, flags *rootFlagValues) error {
	s, err := app.open(ctx, flags)
	if err != nil {
		return err
	}

	inst := lock.NewInstance(s.root)
	if err := inst.Acquire(); err != nil {
		ctxBuilder := issue.NewErrorContext().
			WithOperation("lock workspace").
			WithResource(inst.Path()).
			Wrap(err)
		if errors.Is(err, lock.ErrBusy) {
			ctxBuilder = ctxBuilder.
				WithIssue(issue.WorkspaceBusyId).
				WithSuggestion("Stop the other 'cxxmod watch' serving this workspace")
		}
		return ctxBuilder.BuildError()
	}
	defer func() {
		if relErr := inst.Release(); relErr != nil {
			s.logger.Warn("release workspace lock", "error", relErr)
		}
	}()

	w, err := watch.New(watch.Config{
		BaseDir:  s.root,
		Ignore:   s.cfg.Watch.Ignore,
		Debounce: s.cfg.Watch.Debounce,
		Logger:   s.logger,
		OnBatch: func(ctx context.Context, batch []events.Event) error {
			s.display.batch(s.handler.HandleBatch(ctx, batch))
			return nil
		},
	})
	if err != nil {
		return watchError(s.root, "start watcher", err)
	}

	fmt.Fprintf(app.stdout, "%s Watching %s (Ctrl+C to stop)...\n",
		VerboseStyle.Render(arrowIcon), CmdStyle.Render(s.root))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.dispatcher.Run(gctx)
	})
	g.Go(func() error {
		defer s.dispatcher.Close()
		if err := w.Run(gctx); err != nil {
			return watchError(s.root, "watch workspace", err)
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	st := s.dispatcher.Stats()
	s.logger.Info("watch stopped", "completed", st.Completed, "failed", st.Failed)
	return err
}

// watchError wraps a watcher failure, linking the watch limit issue only
// when the system ran out of watches or descriptors.
func watchError(root, op string, err error) error {
	ctxBuilder := issue.NewErrorContext().
		WithOperation(op).
		WithResource(root).
		Wrap(err)
	if watch.IsResourceLimit(err) {
		ctxBuilder = ctxBuilder.WithIssue(issue.WatchLimitReachedId)
	}
	return ctxBuilder.BuildError()
}
