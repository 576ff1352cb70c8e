package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/npdoc2json/internal/treecheck"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a documentation tree file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := treecheck.ValidateFile(args[0])
			if err != nil {
				return fmt.Errorf("invalid tree %s:\n%w", args[0], err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d functions, %d submodules\n",
				args[0], stats.Functions, stats.Submodules)
			return err
		},
	}
}
