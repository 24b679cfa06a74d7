// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cxxmod/cxxmod/internal/completion"
)

func newCompleteCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <text-before-cursor>",
		Short: "Print module names that complete an import statement",
		Long: `Print module names that complete an import statement.

The argument is the text of the current line up to the cursor. When it
ends in an import position, every known module starting with the
partial name is printed, one per line. Known modules are read from the
completion.modules_file list.`,
		Example: `  cxxmod complete "import "
  cxxmod complete "export import net.h"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			root, loaded, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			src := completion.NewSource(app.Fs, loaded.Config.ModulesFile(root))
			names, err := src.Complete(args[0])
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			for _, name := range names {
				fmt.Fprintln(app.stdout, name)
			}
			return nil
		},
	}
}
