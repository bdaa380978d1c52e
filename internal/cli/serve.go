package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/studiodesk/internal/app"
	"github.com/roach88/studiodesk/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string // overrides server.addr
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Long: `Start the HTTP service.

Routes:
  GET  /ping                    liveness
  POST /support-agent/query     {"prompt": "..."} to the support agent
  POST /dashboard-agent/query   {"prompt": "..."} to the dashboard agent
  GET  /metrics                 Prometheus metrics

The service stops gracefully on SIGINT or SIGTERM.

Example:
  studiodesk serve --config studiodesk.cue --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("opening store", "driver", cfg.Store.Driver)
	a, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	srv := server.New(a.Router,
		server.WithLogger(logger),
		server.WithMetrics(a.Metrics),
	)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
