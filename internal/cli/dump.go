package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/example/npdoc2json/pkg/pymodule"
)

func newDumpCommand(global *globalFlags) *cobra.Command {
	config := GenerateConfig{ConvertMarkup: true}

	cmd := &cobra.Command{
		Use:   "dump <module>",
		Short: "Capture a module graph as a snapshot file",
		Long: "Imports a module and writes its export lists and docstrings as a snapshot\n" +
			"that the root command can read back with --snapshot.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Module = args[0]
			logger := newLogger(cmd.ErrOrStderr(), global.verbose)
			return Dump(cmd.Context(), &config, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&config.Python, "python", pymodule.DefaultPython, "Python interpreter used to import the module")
	cmd.Flags().StringVarP(&config.OutputPath, "output", "o", defaultOutput, "Path to output file or '-' for stdout")
	cmd.Flags().StringVar(&config.Format, "format", defaultFormat, "Output format: json or yaml")
	cmd.Flags().DurationVar(&config.Timeout, "timeout", defaultTimeout, "Time limit for importing the module")
	cmd.Flags().StringVar(&config.ConfigPath, "config", "", "Path to .npdoc.yml config file")

	return cmd
}

// Dump imports config.Module and writes its snapshot.
func Dump(ctx context.Context, config *GenerateConfig, logger *log.Logger, stdout io.Writer) error {
	if err := loadConfigFile(config); err != nil {
		return err
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	resolver := pymodule.NewPythonResolver(config.Python, logger)
	return dumpWithRunner(ctx, config, resolver, stdout, defaultFileSystem)
}

func dumpWithRunner(ctx context.Context, config *GenerateConfig, resolver *pymodule.PythonResolver, stdout io.Writer, fs FileSystem) error {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	snap, err := resolver.Snapshot(ctx, config.Module)
	if err != nil {
		return err
	}
	return writeOutputWithFS(stdout, config.OutputPath, fs, func(w io.Writer) error {
		if config.Format == "json" {
			return snap.WriteJSON(w)
		}
		return writeTree(w, config.Format, snap)
	})
}
