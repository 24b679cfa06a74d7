// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cxxmod/cxxmod/internal/config"
	"github.com/cxxmod/cxxmod/internal/issue"
)

// newConfigCommand creates the `cxxmod config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cxxmod configuration",
		Long: `Manage cxxmod configuration.

Settings are merged from, in increasing priority:
  - built-in defaults
  - the user file (~/.config/cxxmod/config.cue on Linux)
  - <root>/cxxmod.cue
  - CXXMOD_* environment variables, e.g. CXXMOD_TOOL_COMMAND
  - command-line flags`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			if err := showConfig(cmd.Context(), app, flags); err != nil {
				return app.fail(err, flags.verbose)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			_, loaded, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default cxxmod.cue at the workspace root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			if err := initConfig(app, flags, force); err != nil {
				return app.fail(err, flags.verbose)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := workspaceRoot(flags)
			if err != nil {
				return err
			}
			if dir, dirErr := config.ConfigDir(); dirErr == nil {
				fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("user"), filepath.Join(dir, config.UserFileName))
			}
			fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("workspace"), filepath.Join(root, config.WorkspaceFileName))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, flags *rootFlagValues) error {
	root, loaded, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	out := app.stdout

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(key string, value any) {
		fmt.Fprintf(out, "  %s: %s\n", keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Workspace"), root)
	if len(loaded.Files) == 0 {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config files"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config files"), strings.Join(loaded.Files, ", "))
	}

	fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("tool"))
	kv("command", cfg.Tool.Command)
	kv("root", cfg.ToolRoot(root))

	fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("manifest"))
	kv("name", cfg.Manifest.Name)
	kv("lock", cfg.Manifest.Lock)
	kv("skip_unchanged_writes", cfg.Manifest.SkipUnchangedWrites)

	fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("watch"))
	kv("debounce", cfg.Watch.Debounce)
	if len(cfg.Watch.Ignore) == 0 {
		kv("ignore", SubtitleStyle.Render("(none)"))
	} else {
		kv("ignore", strings.Join(cfg.Watch.Ignore, ", "))
	}

	fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("events"))
	kv("add_dirs", cfg.Events.AddDirs)
	kv("forward_renames", cfg.Events.ForwardRenames)
	kv("prompt", cfg.Events.Prompt)
	kv("prompt_theme", cfg.Events.PromptTheme)
	kv("visible", cfg.Events.Visible)

	fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("completion"))
	kv("modules_file", cfg.ModulesFile(root))

	fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("log"))
	kv("level", cfg.Log.Level)
	kv("format", cfg.Log.Format)
	return nil
}

func initConfig(app *App, flags *rootFlagValues, force bool) error {
	root, err := workspaceRoot(flags)
	if err != nil {
		return err
	}
	path, err := config.WriteWorkspaceFile(root, config.DefaultConfig(), force)
	if errors.Is(err, fs.ErrExist) {
		return issue.NewErrorContext().
			WithOperation("create config file").
			WithResource(path).
			WithSuggestion("Pass --force to overwrite it").
			Wrap(err).
			BuildError()
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("create config file").
			WithResource(path).
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	}
	fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render(successIcon), path)
	return nil
}
