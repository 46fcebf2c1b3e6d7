// Package cmd provides the stencil command-line interface.
//
// Configuration is layered, later sources winning:
//
//  1. Built-in defaults
//  2. The config file: --config, else STENCIL_CONFIG_FILE, else .stencil.yml
//     in the working directory
//  3. STENCIL_ prefixed environment variables (STENCIL_OUT, STENCIL_SITEMAP, ...),
//     optionally loaded from a .env file
//  4. Command-line flags
//  5. --data-file and --global-data, merged into the global data
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/conneroisu/stencil/internal/build"
	"github.com/conneroisu/stencil/internal/config"
	"github.com/conneroisu/stencil/internal/data"
	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/renderer"
	"github.com/conneroisu/stencil/internal/version"
	"github.com/conneroisu/stencil/internal/watcher"
)

// EnvFile is loaded into the environment when present
const EnvFile = ".env"

// NewRootCommand creates the stencil command
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "stencil [patterns...]",
		Short: "Render templated pages into a static HTML site",
		Long: `Stencil renders the templates matched by the given glob patterns into an
output directory, injecting per-template and global JSON data, and copies the
static assets found under the same root directories.

Files whose name starts with an underscore are partials. A partial bound to a
JSON array renders one page per element, named after the element's "name".

Examples:
  stencil 'site/**/*.tmpl'
  stencil 'site/**/*.tmpl' -o public --sitemap --sitemap-prefix https://example.com
  stencil 'site/**/*.tmpl' --global-data '{"title":"Home"}' --watch`,
		Args:          cobra.ArbitraryArgs,
		Version:       version.GetShortVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}
	addRootFlags(cmd, flags)
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// Execute runs the stencil command. A non-nil error means exit code 1.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func run(cmd *cobra.Command, flags *rootFlags, patterns []string) error {
	if len(patterns) == 0 {
		return stencilerrors.MissingInputError("patterns", "pass one or more template glob patterns")
	}

	logger, err := newLogger(cmd, flags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := loadEnvFile(EnvFile); err != nil {
		return stencilerrors.NewConfigError(stencilerrors.ErrCodeConfigInvalid, "cannot load "+EnvFile, err)
	}
	opts, err := loadOptions(cmd, flags)
	if err != nil {
		return err
	}
	if opts.ConfigFile != "" {
		logger.Info(ctx, "using config file", "path", opts.ConfigFile)
	}

	expander := &data.Expander{Bindings: opts.Bindings, Ext: opts.Ext, Logger: logger}
	expansion, expandErr := expander.Expand(ctx, patterns)
	if expansion == nil {
		return expandErr
	}
	for _, err := range multierr.Errors(expandErr) {
		logger.Error(ctx, err, "cannot resolve template data")
	}

	notifier := logging.NewLogNotifier(logger)
	metrics := build.NewMetrics(nil)
	builder := build.NewBuilder(opts, renderer.NewTemplateEngine(), notifier, logger, metrics)

	_, buildErr := builder.Build(ctx, patterns, expansion.Details)
	runErr := multierr.Combine(expandErr, buildErr)

	if flags.Watch {
		runErr = multierr.Append(runErr, watch(ctx, opts, patterns, expansion, builder, logger))
	}

	if flags.MetricsFile != "" {
		if err := metrics.WriteTextfile(flags.MetricsFile); err != nil {
			logger.Warn(ctx, err, "cannot write metrics file", "path", flags.MetricsFile)
		}
	}
	return runErr
}

// loadOptions assembles the layered Options
func loadOptions(cmd *cobra.Command, flags *rootFlags) (config.Options, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Options{}, err
	}
	configFile, err := config.Discover(flags.ConfigFile, wd)
	if err != nil {
		return config.Options{}, stencilerrors.NewConfigError(stencilerrors.ErrCodeConfigInvalid, "cannot read config file", err)
	}

	return config.NewBuilder().
		WithFile(configFile).
		FromViper(config.NewEnv()).
		WithLayer(flags.layer(cmd.Flags()), wd).
		WithDataFile(flags.DataFile).
		WithGlobalJSON(flags.GlobalData).
		Build()
}

// watch keeps the output in sync until ctx is cancelled or an interrupt
// arrives.
func watch(ctx context.Context, opts config.Options, patterns []string, expansion *data.Expansion, builder *build.Builder, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := paths.RootDirs(patterns)
	fw, err := watcher.NewFileWatcher(roots, opts.Debounce, logger)
	if err != nil {
		return stencilerrors.NewWatchError("cannot create watcher", err)
	}
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(watcher.OutsideFilter(opts.Out))

	driver := watcher.NewDriver(fw, expansion, builder.Renderer, builder.Copier, opts.Workers, builder.Notifier, logger)
	logger.Info(ctx, "starting watch", "roots", roots)
	return driver.Run(ctx)
}

func newLogger(cmd *cobra.Command, flags *rootFlags) (logging.Logger, error) {
	level, err := logging.ParseLevel(flags.LogLevel)
	if err != nil {
		return nil, stencilerrors.ConfigurationError("log-level", err.Error(), flags.LogLevel)
	}
	if flags.LogFormat != "text" && flags.LogFormat != "json" {
		return nil, stencilerrors.ConfigurationError("log-format", "supported: text, json", flags.LogFormat)
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    flags.LogFormat,
		Output:    cmd.ErrOrStderr(),
		Component: "stencil",
	}), nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is ignored.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}
