// Package cli provides the command-line interface for npdoc2json.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it. Errors are printed by fang.
func Execute(ctx context.Context, version string) error {
	return fang.Execute(
		ctx,
		NewRootCommand(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// globalFlags are shared by every command.
type globalFlags struct {
	verbose bool
}

// NewRootCommand returns the npdoc2json command tree. The root command
// extracts the documentation tree of the module named by its argument.
// Subcommand names win over module names; "generate" or "--" reach a module
// named like a subcommand.
func NewRootCommand() *cobra.Command {
	var global globalFlags

	root := newGenerateCommand(&global, "npdoc2json <module>")
	root.Long += "\n\nA module named like a subcommand (check, dump, render, generate, help)\n" +
		"is reached with 'npdoc2json generate <module>' or 'npdoc2json -- <module>'."
	root.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "Enable debug logging")
	root.SilenceUsage = true

	root.AddCommand(
		newDumpCommand(&global),
		newRenderCommand(&global),
		newCheckCommand(),
		newGenerateCommand(&global, "generate <module>"),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "npdoc2json",
		Level:  level,
	})
}
