package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/studiodesk/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // CUE config file; empty uses the schema defaults
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the studiodesk CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "studiodesk",
		Short: "Studio operations assistant",
		Long: `Keyword-routed prompt engines for a fitness and wellness studio.

The support agent handles orders, payments, classes, enquiries and client
lookups; the dashboard agent answers revenue, client and attendance
questions. Both read and write a configurable record store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a CUE config file")

	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// loadConfig loads --config with environment overrides applied.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger builds the text logger for a command. --verbose forces debug
// level; otherwise log.level from the config applies.
func (o *RootOptions) newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
