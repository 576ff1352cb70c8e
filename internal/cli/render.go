package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/example/npdoc2json/pkg/doctree"
	"github.com/example/npdoc2json/pkg/mdrender"
)

func newRenderCommand(global *globalFlags) *cobra.Command {
	var config RenderConfig

	cmd := &cobra.Command{
		Use:   "render <tree-file>[#sub[.func]]",
		Short: "Render a documentation tree as Markdown, HTML or terminal output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.InputPath, config.Target, _ = strings.Cut(args[0], "#")
			logger := newLogger(cmd.ErrOrStderr(), global.verbose)
			return Render(&config, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&config.Depth, "depth", 1, "Heading level of top-level entries")
	cmd.Flags().StringVar(&config.Module, "module", "", "Module name prefixed to cross-reference labels")
	cmd.Flags().StringVar(&config.Format, "format", "myst", "Output format: myst, md, html or term")
	cmd.Flags().IntVar(&config.Width, "width", 80, "Word wrap width for term output, 0 to disable")
	cmd.Flags().StringVar(&config.Style, "style", "", "Glamour style for term output (default: detect)")
	cmd.Flags().StringVarP(&config.OutputPath, "output", "o", defaultOutput, "Path to output file or '-' for stdout")

	return cmd
}

// RenderConfig holds configuration for rendering a tree file.
type RenderConfig struct {
	InputPath  string `validate:"required"`
	Target     string
	Depth      int    `validate:"min=1,max=6"`
	Module     string
	Format     string `validate:"oneof=myst md html term"`
	Width      int    `validate:"gte=0"`
	Style      string
	OutputPath string `validate:"required"`
}

// Render reads a tree file and writes it in config.Format.
func Render(config *RenderConfig, logger *log.Logger, stdout io.Writer) error {
	return renderWithFS(config, logger, stdout, defaultFileSystem)
}

func renderWithFS(config *RenderConfig, logger *log.Logger, stdout io.Writer, fs FileSystem) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tree, err := doctree.ReadFile(config.InputPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded documentation tree", "path", config.InputPath, "entries", tree.Len(), "target", config.Target)

	flavor := mdrender.CommonMark
	if config.Format == "myst" {
		flavor = mdrender.MyST
	}
	out, err := mdrender.Markdown(tree, mdrender.Options{
		Depth:  config.Depth,
		Module: config.Module,
		Target: config.Target,
		Flavor: flavor,
	})
	if err != nil {
		return err
	}

	switch config.Format {
	case "html":
		out, err = mdrender.HTML(out)
	case "term":
		out, err = mdrender.Terminal(out, config.Width, config.Style)
	}
	if err != nil {
		return err
	}

	return writeOutputWithFS(stdout, config.OutputPath, fs, func(w io.Writer) error {
		_, err := io.WriteString(w, out)
		return err
	})
}
