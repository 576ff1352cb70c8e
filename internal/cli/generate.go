package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/npdoc2json/pkg/doctree"
	"github.com/example/npdoc2json/pkg/pymodule"
	"github.com/example/npdoc2json/pkg/rst2myst"
)

const (
	defaultOutput  = "-"
	defaultFormat  = "json"
	defaultTimeout = 2 * time.Minute
)

var validate = validator.New()

func newGenerateCommand(global *globalFlags, use string) *cobra.Command {
	config := GenerateConfig{ConvertMarkup: true}
	var raw bool

	cmd := &cobra.Command{
		Use:   use,
		Short: "Extract the numpydoc documentation tree of a Python module",
		Long: "Imports a module, walks its __all__ export list recursively and prints\n" +
			"the parsed docstring of every documented function as a nested tree.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Module = args[0]
			config.ConvertMarkup = !raw
			logger := newLogger(cmd.ErrOrStderr(), global.verbose)
			return Generate(cmd.Context(), &config, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&config.Python, "python", pymodule.DefaultPython, "Python interpreter used to import the module")
	cmd.Flags().StringVar(&config.SnapshotPath, "snapshot", "", "Read the module graph from a snapshot written by 'dump' instead of importing")
	cmd.Flags().StringVarP(&config.OutputPath, "output", "o", defaultOutput, "Path to output file or '-' for stdout")
	cmd.Flags().StringVar(&config.Format, "format", defaultFormat, "Output format: json or yaml")
	cmd.Flags().BoolVar(&raw, "raw", false, "Keep reStructuredText markup unconverted")
	cmd.Flags().BoolVar(&config.Strict, "strict", false, "Fail on unclosed inline markup")
	cmd.Flags().DurationVar(&config.Timeout, "timeout", defaultTimeout, "Time limit for importing the module")
	cmd.Flags().StringVar(&config.ConfigPath, "config", "", "Path to .npdoc.yml config file")

	return cmd
}

// GenerateConfig holds configuration for tree extraction.
type GenerateConfig struct {
	Module        string        `validate:"required"`
	Python        string        `validate:"required"`
	SnapshotPath  string
	OutputPath    string        `validate:"required"`
	Format        string        `validate:"oneof=json yaml yml"`
	ConvertMarkup bool
	Strict        bool
	Timeout       time.Duration `validate:"gte=0"`
	ConfigPath    string
}

// Generate resolves config.Module, walks it and writes the tree.
func Generate(ctx context.Context, config *GenerateConfig, logger *log.Logger, stdout io.Writer) error {
	if err := loadConfigFile(config); err != nil {
		return err
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var resolver pymodule.Resolver = &pymodule.SnapshotResolver{Path: config.SnapshotPath}
	if config.SnapshotPath == "" {
		resolver = pymodule.NewPythonResolver(config.Python, logger)
	}
	return generateWithResolver(ctx, config, resolver, logger, stdout, defaultFileSystem)
}

func generateWithResolver(ctx context.Context, config *GenerateConfig, resolver pymodule.Resolver, logger *log.Logger, stdout io.Writer, fs FileSystem) error {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	mod, err := resolver.Resolve(ctx, config.Module)
	if err != nil {
		return fmt.Errorf("resolve module: %w", err)
	}

	walker := doctree.New(
		doctree.WithLogger(logger),
		doctree.WithConverter(rst2myst.New(rst2myst.Options{Strict: config.Strict})),
		doctree.ConvertMarkup(config.ConvertMarkup),
	)
	tree, err := walker.Walk(mod, mod.Name())
	if err != nil {
		return err
	}
	logger.Debug("built documentation tree", "module", mod.Name(), "entries", tree.Len())

	return writeOutputWithFS(stdout, config.OutputPath, fs, func(w io.Writer) error {
		return writeTree(w, config.Format, tree)
	})
}

// fileConfig is the layout of .npdoc.yml.
type fileConfig struct {
	Npdoc struct {
		Python        string  `yaml:"python"`
		Format        string  `yaml:"format"`
		Output        string  `yaml:"output"`
		ConvertMarkup *bool   `yaml:"convert_markup"`
		Strict        *bool   `yaml:"strict"`
		Timeout       *string `yaml:"timeout"`
	} `yaml:"npdoc"`
}

func loadConfigFile(config *GenerateConfig) error {
	if config.ConfigPath == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(config.ConfigPath))
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	file := cfg.Npdoc

	// Apply config values if flags weren't set
	if config.Python == pymodule.DefaultPython && file.Python != "" {
		config.Python = file.Python
	}
	if config.Format == defaultFormat && file.Format != "" {
		config.Format = file.Format
	}
	if config.OutputPath == defaultOutput && file.Output != "" {
		config.OutputPath = file.Output
	}
	if config.ConvertMarkup && file.ConvertMarkup != nil {
		config.ConvertMarkup = *file.ConvertMarkup
	}
	if !config.Strict && file.Strict != nil {
		config.Strict = *file.Strict
	}
	if config.Timeout == defaultTimeout && file.Timeout != nil {
		d, err := time.ParseDuration(*file.Timeout)
		if err != nil {
			return fmt.Errorf("parse config: timeout: %w", err)
		}
		config.Timeout = d
	}

	return nil
}
