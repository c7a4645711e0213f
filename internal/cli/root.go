// Package cli implements the ammo command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/JonMunkholm/ammo/internal/config"
	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/JonMunkholm/ammo/internal/logging"
	"github.com/JonMunkholm/ammo/internal/store"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands. Empty store and
// coercion flags fall back to the environment configuration.
type RootOptions struct {
	DB       string
	Driver   string
	Coercion string
	Format   string // "json" | "text"
	Verbose  bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ammo CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ammo",
		Short:         "Ammunition inventory tracker",
		Long:          "Keep an ammunition inventory: bulk load CSV files, add items by hand, search, export, or serve the web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Coercion != "" {
				if _, err := core.ParseCoercionPolicy(opts.Coercion); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.DB, "db", "", "SQLite database file (env STORE_PATH, default ammo.db)")
	flags.StringVar(&opts.Driver, "driver", "", "store driver: sqlite|postgres|memory (env STORE_DRIVER)")
	flags.StringVar(&opts.Coercion, "coercion", "", "bad quantity handling: lenient|strict (env INGEST_COERCION)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd, opts
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr, or on stdout as JSON with --format json.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRoot()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format := opts.Format
	if !slices.Contains(ValidFormats, format) {
		format = "text"
	}
	formatter := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	_ = formatter.Error(err)
	return GetExitCode(err)
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// config loads the environment configuration with flag overrides applied.
func (o *RootOptions) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, usageError("%v", err)
	}

	if o.Driver != "" {
		cfg.Store.Driver = o.Driver
	}
	if o.DB != "" {
		cfg.Store.Path = o.DB
	}
	if o.Coercion != "" {
		cfg.Ingest.Coercion = o.Coercion
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError("%v", err)
	}
	return cfg, nil
}

// service wires a core service to the configured store. Library logs go
// to stderr, errors only unless --verbose is set.
func (o *RootOptions) service(cmd *cobra.Command) (*core.Service, *config.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}

	level := "error"
	if o.Verbose {
		level = "debug"
	}
	logging.Setup(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	opener, err := store.NewOpener(cfg.Store)
	if err != nil {
		return nil, nil, usageError("%v", err)
	}
	return core.NewService(opener, cfg.ServiceOptions()), cfg, nil
}
